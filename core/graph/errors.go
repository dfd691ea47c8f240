package graph

import "errors"

// ErrNoPath is returned when no route exists between two nodes.
var ErrNoPath = errors.New("no path between nodes")

// ErrNoEdge is returned when two nodes are not directly connected.
var ErrNoEdge = errors.New("no edge between nodes")
