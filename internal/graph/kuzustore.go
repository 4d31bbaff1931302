//go:build cgo

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf directory, not its parents.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables. Link order matters for
// inference, so both ends of every edge keep their list position.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Document(
		name STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		key STRING,
		doc STRING,
		seq INT64,
		node_id INT64,
		class_name STRING,
		top_px INT64,
		left_px INT64,
		bottom_px INT64,
		right_px INT64,
		mask STRING,
		data STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_SYMBOL(FROM Document TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS ATTACHED(FROM Symbol TO Symbol, out_pos INT64, in_pos INT64)`,
	`CREATE REL TABLE IF NOT EXISTS PRECEDES(FROM Symbol TO Symbol, out_pos INT64, in_pos INT64)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// SaveDocument replaces the document: symbols first, then attachment and
// precedence edges with their list positions.
func (s *KuzuStore) SaveDocument(ctx context.Context, name string, records []Record) error {
	if err := s.DeleteDocument(ctx, name); err != nil {
		return err
	}
	if err := s.exec("CREATE (d:Document {name: $name})", map[string]any{"name": name}); err != nil {
		return err
	}

	precIn := make(map[int][]int, len(records))
	precOut := make(map[int][]int, len(records))
	for i := range records {
		r := &records[i]
		in, err := linkList(&r.Node, KeyPrecedenceInlinks)
		if err != nil {
			return err
		}
		out, err := linkList(&r.Node, KeyPrecedenceOutlinks)
		if err != nil {
			return err
		}
		precIn[r.ID], precOut[r.ID] = in, out

		data, err := encodeData(r.Data)
		if err != nil {
			return fmt.Errorf("kuzu: node %d: %w", r.ID, err)
		}
		err = s.exec(
			`CREATE (:Symbol {
				key: $key, doc: $doc, seq: $seq, node_id: $id, class_name: $cls,
				top_px: $t, left_px: $l, bottom_px: $b, right_px: $r,
				mask: $mask, data: $data
			})`,
			map[string]any{
				"doc":  name,
				"key":  symbolKey(name, r.ID),
				"seq":  int64(i),
				"id":   int64(r.ID),
				"cls":  r.ClassName,
				"t":    int64(r.Top),
				"l":    int64(r.Left),
				"b":    int64(r.Bottom),
				"r":    int64(r.Right),
				"mask": encodeMask(r.Mask),
				"data": data,
			},
		)
		if err != nil {
			return err
		}
		err = s.exec(
			`MATCH (d:Document {name: $doc}), (s:Symbol {key: $key})
			 CREATE (d)-[:HAS_SYMBOL]->(s)`,
			map[string]any{"doc": name, "key": symbolKey(name, r.ID)},
		)
		if err != nil {
			return err
		}
	}

	inOf := make(map[int][]int, len(records))
	for _, r := range records {
		inOf[r.ID] = r.Inlinks
	}
	for _, r := range records {
		if err := s.saveEdges(name, "ATTACHED", r.ID, r.Outlinks, inOf); err != nil {
			return err
		}
		if err := s.saveEdges(name, "PRECEDES", r.ID, precOut[r.ID], precIn); err != nil {
			return err
		}
	}
	return nil
}

// saveEdges writes from->to for each to in outs. The in-position is the
// index of from in the target's inlink list, or the end of it when the
// record is one-sided.
func (s *KuzuStore) saveEdges(doc, rel string, from int, outs []int, ins map[int][]int) error {
	// Relationship name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf(
		`MATCH (a:Symbol {key: $src}), (b:Symbol {key: $dst})
		 CREATE (a)-[:%s {out_pos: $op, in_pos: $ip}]->(b)`, rel)
	for pos, to := range outs {
		inPos := indexOf(ins[to], from)
		if inPos < 0 {
			inPos = len(ins[to])
		}
		err := s.exec(cypher, map[string]any{
			"src": symbolKey(doc, from),
			"dst": symbolKey(doc, to),
			"op":  int64(pos),
			"ip":  int64(inPos),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocument removes a document with all its symbols and edges.
func (s *KuzuStore) DeleteDocument(_ context.Context, name string) error {
	if err := s.exec("MATCH (s:Symbol {doc: $doc}) DETACH DELETE s", map[string]any{"doc": name}); err != nil {
		return err
	}
	return s.exec("MATCH (d:Document {name: $doc}) DETACH DELETE d", map[string]any{"doc": name})
}

// ---------- Read operations ----------

// LoadDocument rebuilds the records of a document, or returns nil if it does
// not exist.
func (s *KuzuStore) LoadDocument(_ context.Context, name string) ([]Record, error) {
	docs, err := s.query("MATCH (d:Document {name: $doc}) RETURN d.name", map[string]any{"doc": name})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	rows, err := s.query(
		`MATCH (s:Symbol {doc: $doc})
		 RETURN s.node_id, s.class_name, s.top_px, s.left_px, s.bottom_px, s.right_px, s.mask, s.data
		 ORDER BY s.seq`,
		map[string]any{"doc": name},
	)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	pos := make(map[int]int, len(rows))
	for _, r := range rows {
		rec, err := rowToRecord(r)
		if err != nil {
			return nil, err
		}
		pos[rec.ID] = len(records)
		records = append(records, rec)
	}

	attachOut, attachIn, err := s.loadEdges(name, "ATTACHED")
	if err != nil {
		return nil, err
	}
	precOut, precIn, err := s.loadEdges(name, "PRECEDES")
	if err != nil {
		return nil, err
	}
	for id, i := range pos {
		r := &records[i]
		r.Outlinks = orNonNil(attachOut[id])
		r.Inlinks = orNonNil(attachIn[id])
		if len(precIn[id]) > 0 {
			r.setData(KeyPrecedenceInlinks, precIn[id])
		}
		if len(precOut[id]) > 0 {
			r.setData(KeyPrecedenceOutlinks, precOut[id])
		}
	}
	return records, nil
}

type posLink struct {
	id, pos int
}

// loadEdges reads one relationship table of a document into ordered
// outlink and inlink lists.
func (s *KuzuStore) loadEdges(doc, rel string) (out, in map[int][]int, err error) {
	cypher := fmt.Sprintf(
		`MATCH (a:Symbol {doc: $doc})-[r:%s]->(b:Symbol)
		 RETURN a.node_id, b.node_id, r.out_pos, r.in_pos`, rel)
	rows, err := s.query(cypher, map[string]any{"doc": doc})
	if err != nil {
		return nil, nil, err
	}
	outs := make(map[int][]posLink)
	ins := make(map[int][]posLink)
	for _, r := range rows {
		from, to := toInt(r[0]), toInt(r[1])
		outs[from] = append(outs[from], posLink{id: to, pos: toInt(r[2])})
		ins[to] = append(ins[to], posLink{id: from, pos: toInt(r[3])})
	}
	return flattenLinks(outs), flattenLinks(ins), nil
}

func flattenLinks(m map[int][]posLink) map[int][]int {
	out := make(map[int][]int, len(m))
	for id, links := range m {
		sort.SliceStable(links, func(i, j int) bool { return links[i].pos < links[j].pos })
		ids := make([]int, len(links))
		for i, l := range links {
			ids[i] = l.id
		}
		out[id] = ids
	}
	return out
}

// ListDocuments returns stored document names in sorted order.
func (s *KuzuStore) ListDocuments(_ context.Context) ([]string, error) {
	rows, err := s.query("MATCH (d:Document) RETURN d.name ORDER BY d.name", nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of documents, symbols and both edge relations.
func (s *KuzuStore) Stats(_ context.Context) (*StoreStats, error) {
	docs, err := s.count("MATCH (n:Document) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	symbols, err := s.count("MATCH (n:Symbol) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	attached, err := s.count("MATCH ()-[r:ATTACHED]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	precedes, err := s.count("MATCH ()-[r:PRECEDES]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &StoreStats{
		Documents:       docs,
		Symbols:         symbols,
		AttachmentEdges: attached,
		PrecedenceEdges: precedes,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// symbolKey is the primary key of a symbol: ids are unique only per document.
func symbolKey(doc string, id int) string {
	return fmt.Sprintf("%s#%d", doc, id)
}

// rowToRecord converts an 8-column result row into a Record without links.
// Column order: node_id, class_name, top, left, bottom, right, mask, data.
func rowToRecord(r []any) (Record, error) {
	rec := Record{Node: Node{
		ID:        toInt(r[0]),
		ClassName: toString(r[1]),
		Top:       toInt(r[2]),
		Left:      toInt(r[3]),
		Bottom:    toInt(r[4]),
		Right:     toInt(r[5]),
	}}
	if m := toString(r[6]); m != "" {
		mask, err := ParseMask(strings.Split(m, "\n"))
		if err != nil {
			return Record{}, fmt.Errorf("kuzu: node %d: %w", rec.ID, err)
		}
		rec.Mask = mask
	}
	if d := toString(r[7]); d != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(d)))
		dec.UseNumber()
		if err := dec.Decode(&rec.Data); err != nil {
			return Record{}, fmt.Errorf("kuzu: node %d: decode data: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// encodeData serializes Data without the precedence keys, which are stored
// as PRECEDES relationships.
func encodeData(data map[string]any) (string, error) {
	rest := make(map[string]any, len(data))
	for k, v := range data {
		if k == KeyPrecedenceInlinks || k == KeyPrecedenceOutlinks {
			continue
		}
		rest[k] = v
	}
	if len(rest) == 0 {
		return "", nil
	}
	b, err := json.Marshal(rest)
	return string(b), err
}

func encodeMask(m *Mask) string {
	if m == nil {
		return ""
	}
	return strings.Join(m.Strings(), "\n")
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func orNonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
