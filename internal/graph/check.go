package graph

// Finding kinds reported by Check.
const (
	FindingBeamAgainstStem      = "beam_against_stem"
	FindingLegerLineBothSides   = "leger_line_both_sides"
	FindingLegerLineAndStaff    = "leger_line_and_staff"
	FindingOnStaffViaLegerLine  = "on_staff_via_leger_line"
	FindingMisdirectedLegerLine = "misdirected_leger_line"
	FindingContained            = "contained"
	FindingIsolated             = "isolated"
	FindingEmptyStaff           = "empty_staff"
)

// Finding is one suspicious symbol, or edge when Nodes holds two ids.
type Finding struct {
	Kind  string `json:"kind"`
	Nodes []int  `json:"nodes"`
}

// CheckReport summarizes the structural health of a notation graph.
type CheckReport struct {
	Symbols         int       `json:"symbols"`
	AttachmentEdges int       `json:"attachmentEdges"`
	PrecedenceEdges int       `json:"precedenceEdges"`
	Components      int       `json:"components"`
	Findings        []Finding `json:"findings"`
}

// Clean reports whether no detector found anything.
func (r *CheckReport) Clean() bool { return len(r.Findings) == 0 }

// Check runs every repair detector over g without changing it. Components
// are counted with the staff-level symbols left out.
func Check(g *NotationGraph) (*CheckReport, error) {
	report := &CheckReport{
		Symbols:         g.Len(),
		AttachmentEdges: len(g.Edges()),
		PrecedenceEdges: len(g.PrecedenceEdges()),
		Components:      len(ConnectedComponents(g, 1, StaffClasses...)),
		Findings:        []Finding{},
	}
	addPairs := func(kind string, pairs []Pair) {
		for _, p := range pairs {
			report.Findings = append(report.Findings, Finding{Kind: kind, Nodes: []int{p.Notehead.ID, p.Other.ID}})
		}
	}
	addNodes := func(kind string, nodes []*Node) {
		for _, n := range nodes {
			report.Findings = append(report.Findings, Finding{Kind: kind, Nodes: []int{n.ID}})
		}
	}

	beams, err := FindBeamsIncoherentWithStems(g)
	if err != nil {
		return nil, err
	}
	addPairs(FindingBeamAgainstStem, beams)
	addNodes(FindingLegerLineBothSides, FindLegerLinesWithNoteheadsFromBothDirections(g))
	addNodes(FindingLegerLineAndStaff, FindNoteheadsWithLegerLineAndStaffConflict(g))
	addNodes(FindingOnStaffViaLegerLine, FindNoteheadsOnStaffLinkedToLegerLine(g))
	addPairs(FindingMisdirectedLegerLine, FindMisdirectedLegerLineEdges(g, true))
	addNodes(FindingContained, FindContainedNodes(g, DefaultContainmentRecall))

	var isolated []*Node
	for _, n := range IsolatedVertices(g) {
		if !IsClass(n.ClassName, StaffClasses) {
			isolated = append(isolated, n)
		}
	}
	addNodes(FindingIsolated, isolated)
	addNodes(FindingEmptyStaff, EmptyStaffs(g))
	return report, nil
}
