package graph

import (
	"encoding/json"
	"fmt"
	"os"

	core "github.com/parcelops/fleetsim/core/graph"
)

type mapFile struct {
	Nodes []mapNode `json:"nodes"`
	Edges []mapEdge `json:"edges"`
}

type mapNode struct {
	ID  core.NodeID `json:"id"`
	Lat float64     `json:"lat"`
	Lng float64     `json:"lng"`
}

type mapEdge struct {
	From   core.NodeID `json:"from"`
	To     core.NodeID `json:"to"`
	Length float64     `json:"length"`
}

// LoadMapFile reads a JSON road map and builds a network from it.
func LoadMapFile(path string) (*RoadNetwork, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}
	var mf mapFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse map file %s: %w", path, err)
	}
	nodes := make([]Node, len(mf.Nodes))
	for i, n := range mf.Nodes {
		nodes[i] = Node{ID: n.ID, Lat: n.Lat, Lng: n.Lng}
	}
	edges := make([]Edge, len(mf.Edges))
	for i, e := range mf.Edges {
		edges[i] = Edge{From: e.From, To: e.To, Length: e.Length}
	}
	net, err := NewRoadNetwork(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("map file %s: %w", path, err)
	}
	return net, nil
}

// WriteMapFile serializes a grid spec to the JSON map format so that generated
// maps can be reloaded with LoadMapFile.
func WriteMapFile(path string, nodes []Node, edges []Edge) error {
	mf := mapFile{
		Nodes: make([]mapNode, len(nodes)),
		Edges: make([]mapEdge, len(edges)),
	}
	for i, n := range nodes {
		mf.Nodes[i] = mapNode{ID: n.ID, Lat: n.Lat, Lng: n.Lng}
	}
	for i, e := range edges {
		mf.Edges[i] = mapEdge{From: e.From, To: e.To, Length: e.Length}
	}
	raw, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
