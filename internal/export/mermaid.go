package export

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/dusk-indust/scoregraph/internal/onsets"
)

// PrecedenceMermaid produces a Mermaid graph LR diagram of the precedence
// DAG. Vertices with a resolved onset are grouped into one subgraph per
// onset, in time order; precedence edges become arrows.
func PrecedenceMermaid(pg *onsets.PrecedenceGraph, onsetTable map[int]*big.Rat) string {
	// Mermaid ids must be alphanumeric; synthetic vertices have negative ids.
	nodeIDs := make(map[int]string)
	getID := func(id int) string {
		if m, ok := nodeIDs[id]; ok {
			return m
		}
		m := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[id] = m
		return m
	}

	groups := make(map[string][]*onsets.PrecedenceNode)
	var keys []*big.Rat
	var loose []*onsets.PrecedenceNode
	for _, p := range pg.Nodes() {
		onset := p.Onset
		if onset == nil && p.Node != nil {
			onset = onsetTable[p.ID]
		}
		if onset == nil {
			loose = append(loose, p)
			continue
		}
		k := onset.RatString()
		if _, ok := groups[k]; !ok {
			keys = append(keys, onset)
		}
		groups[k] = append(groups[k], p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i, k := range keys {
		members := groups[k.RatString()]
		sort.Slice(members, func(a, b int) bool { return members[a].ID < members[b].ID })
		sb.WriteString(fmt.Sprintf("  subgraph T%d[\"onset %s\"]\n", i, k.RatString()))
		for _, p := range members {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(p.ID), label(p)))
		}
		sb.WriteString("  end\n")
	}
	for _, p := range loose {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(p.ID), label(p)))
	}

	for _, e := range pg.Edges() {
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(e[0]), getID(e[1])))
	}
	return sb.String()
}

func label(p *onsets.PrecedenceNode) string {
	if p.Synthetic() {
		return fmt.Sprintf("spine %d", p.ID)
	}
	return fmt.Sprintf("%s #%d (%s)", p.Node.ClassName, p.ID, p.Duration.RatString())
}
