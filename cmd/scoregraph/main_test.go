package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/dusk-indust/scoregraph/internal/export"
	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
)

// writeDoc writes a two-note document (C5 quarter, B4 half) to dir.
func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 1000, 10)
	b.Add(30, graph.ClassGClef, 90, 10, 150, 30).Attach(30, 10)
	b.Add(1, graph.ClassNoteheadFull, 110, 100, 122, 112).Attach(1, 10).Attach(1, 15)
	b.Add(101, graph.ClassStem, 80, 111, 116, 113).Attach(1, 101)
	b.Add(2, graph.ClassNoteheadHalf, 115, 200, 127, 212).Attach(2, 10).Attach(2, 16)
	b.Add(102, graph.ClassStem, 80, 211, 121, 213).Attach(2, 102)
	b.Precede(1, 2)

	path := filepath.Join(dir, name)
	require.NoError(t, graph.SaveDocument(path, b.Records()))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInfer(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "etude.json")

	out, err := execute(t, "infer", path)
	require.NoError(t, err)

	var res export.ResultsExport
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "etude", res.Name)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, "B4", res.Notes[1].Name)
	assert.Equal(t, "1", res.Notes[1].Onset)
}

func TestInfer_Batch(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.json")
	b := writeDoc(t, dir, "b.json")
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "infer", "-o", outDir, a, b)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "a.results.json"))
	assert.FileExists(t, filepath.Join(outDir, "b.results.json"))
}

func TestInfer_BatchFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad,
		[]byte(`[{"id":1,"className":"noteheadFull","top":0,"left":0,"bottom":10,"right":10,"inlinks":[],"outlinks":[7]}]`), 0o644))

	_, err := execute(t, "infer", "-o", filepath.Join(dir, "out"), good, bad)
	assert.EqualError(t, err, "1 of 2 documents failed")
	assert.FileExists(t, filepath.Join(dir, "out", "good.results.json"))
}

func TestCheck(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "etude.json")

	out, err := execute(t, "check", "--fail", path)
	require.NoError(t, err)

	var report graph.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 17, report.Symbols)
	assert.True(t, report.Clean())
}

func TestMIDI(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "etude.json")
	out := filepath.Join(dir, "etude.mid")

	stdout, err := execute(t, "midi", "-o", out, path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(2 notes)")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	s, err := smf.ReadFrom(f)
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 1)
}

func TestDiagram(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "etude.json")

	out, err := execute(t, "diagram", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR\n")
	assert.Contains(t, out, "N0 --> N1")
}

func TestStrictFlag(t *testing.T) {
	dir := t.TempDir()
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 1000, 10)
	b.Add(30, graph.ClassGClef, 90, 10, 150, 30).Attach(30, 10)
	// A full notehead without a stem only warns unless strict.
	b.Add(1, graph.ClassNoteheadFull, 110, 100, 122, 112).Attach(1, 10).Attach(1, 15)
	path := filepath.Join(dir, "stemless.json")
	require.NoError(t, graph.SaveDocument(path, b.Records()))

	_, err := execute(t, "infer", path)
	require.NoError(t, err)
	_, err = execute(t, "--strict", "infer", path)
	assert.ErrorIs(t, err, graph.ErrInconsistent)
}
