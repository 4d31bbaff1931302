package graph

import (
	"context"
	"io"
)

// Store persists notation documents: named record sets with both edge
// relations. Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any document is saved.
	InitSchema(ctx context.Context) error

	// SaveDocument replaces the stored document of the given name.
	SaveDocument(ctx context.Context, name string, records []Record) error

	// LoadDocument returns the records of a document in their saved order,
	// or nil if no such document exists.
	LoadDocument(ctx context.Context, name string) ([]Record, error)

	ListDocuments(ctx context.Context) ([]string, error)
	DeleteDocument(ctx context.Context, name string) error

	Stats(ctx context.Context) (*StoreStats, error)
}

// StoreStats counts what a Store holds.
type StoreStats struct {
	Documents       int `json:"documents"`
	Symbols         int `json:"symbols"`
	AttachmentEdges int `json:"attachmentEdges"`
	PrecedenceEdges int `json:"precedenceEdges"`
}

// LoadGraph loads a document from s and builds its NotationGraph.
func LoadGraph(ctx context.Context, s Store, name string, opts ...Option) (*NotationGraph, error) {
	records, err := s.LoadDocument(ctx, name)
	if err != nil {
		return nil, err
	}
	if records == nil {
		return nil, invalidf(NoNode, "document %q not found", name)
	}
	return New(records, opts...)
}

// SaveGraph stores the current state of g under name.
func SaveGraph(ctx context.Context, s Store, name string, g *NotationGraph) error {
	return s.SaveDocument(ctx, name, g.Records())
}
