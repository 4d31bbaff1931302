package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadDocument decodes a JSON array of records. Numbers in Data are kept as
// json.Number so that ids survive exactly.
func ReadDocument(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	for i := range records {
		if err := records[i].validateBox(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// WriteDocument encodes records as an indented JSON array.
func WriteDocument(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// LoadDocument reads a document file.
func LoadDocument(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDocument(f)
}

// SaveDocument writes a document file, replacing any existing one.
func SaveDocument(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDocument(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Record) validateBox() error {
	if r.Top >= r.Bottom || r.Left >= r.Right {
		return invalidf(r.ID, "degenerate bounding box %d,%d,%d,%d", r.Top, r.Left, r.Bottom, r.Right)
	}
	if r.Mask != nil && (r.Mask.Rows() != r.Height() || r.Mask.Cols() != r.Width()) {
		return invalidf(r.ID, "mask %dx%d does not match box %dx%d",
			r.Mask.Rows(), r.Mask.Cols(), r.Height(), r.Width())
	}
	return nil
}
