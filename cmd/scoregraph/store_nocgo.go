//go:build !cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

func openKuzu(path string) (graph.Store, error) {
	return nil, fmt.Errorf("kuzu store at %s: built without cgo", path)
}
