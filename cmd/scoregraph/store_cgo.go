//go:build cgo

package main

import "github.com/dusk-indust/scoregraph/internal/graph"

func openKuzu(path string) (graph.Store, error) {
	s, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
