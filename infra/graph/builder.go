package graph

import (
	"fmt"
	"strconv"
	"strings"

	core "github.com/parcelops/fleetsim/core/graph"
)

// Build resolves a map descriptor into a road network.
//
// Supported descriptors:
//
//	""             default synthetic grid
//	"grid:COLSxROWS"  synthetic grid of the given dimensions
//	"file:PATH"    JSON map file
//	anything else  treated as a JSON map file path
func Build(descriptor string) (core.Provider, error) {
	descriptor = strings.TrimSpace(descriptor)
	switch {
	case descriptor == "":
		return NewGridNetwork(GridSpec{})
	case strings.HasPrefix(descriptor, "grid:"):
		spec, err := parseGridDescriptor(strings.TrimPrefix(descriptor, "grid:"))
		if err != nil {
			return nil, err
		}
		return NewGridNetwork(spec)
	case strings.HasPrefix(descriptor, "file:"):
		return LoadMapFile(strings.TrimPrefix(descriptor, "file:"))
	default:
		return LoadMapFile(descriptor)
	}
}

func parseGridDescriptor(dims string) (GridSpec, error) {
	parts := strings.SplitN(dims, "x", 2)
	if len(parts) != 2 {
		return GridSpec{}, fmt.Errorf("grid descriptor must be COLSxROWS, got %q", dims)
	}
	cols, err := strconv.Atoi(parts[0])
	if err != nil {
		return GridSpec{}, fmt.Errorf("grid columns: %w", err)
	}
	rows, err := strconv.Atoi(parts[1])
	if err != nil {
		return GridSpec{}, fmt.Errorf("grid rows: %w", err)
	}
	return GridSpec{Rows: rows, Cols: cols}, nil
}
