package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specmap/domain/spec"
	"specmap/domain/template"
)

func node(category, label, description string) spec.NodeView {
	return spec.NodeView{
		ID:         spec.NewNodeID(),
		Category:   category,
		Attributes: spec.Attributes{Label: label, Description: description},
	}
}

const goodDesc = "a description long enough to count as substantial"

func TestIsComplete(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name string
		node spec.NodeView
		want bool
	}{
		{"complete feature", node("feature", "Login", goodDesc), true},
		{"short label", node("feature", "Lo", goodDesc), false},
		{"whitespace label", node("feature", "   ab   ", goodDesc), false},
		{"short description", node("feature", "Login", "too short"), false},
		{"datamodel without fields", node("datamodel", "User", goodDesc), false},
		{"technical without technology", node("technical", "API", goodDesc), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsComplete(tt.node))
		})
	}

	dm := node("datamodel", "User", goodDesc)
	dm.Attributes.Fields = []string{"id", "email"}
	assert.True(t, e.IsComplete(dm))

	tech := node("technical", "API", goodDesc)
	tech.Attributes.Technology = "Go"
	assert.False(t, e.IsComplete(tech), "technology shorter than 3 chars")
	tech.Attributes.Technology = "Gin"
	assert.True(t, e.IsComplete(tech))
}

func TestScore_EmptyGraph(t *testing.T) {
	e := NewEngine(nil)

	m := e.Score(spec.Snapshot{}, nil)

	assert.Equal(t, 0, m.Completeness)
	assert.Equal(t, 0, m.SuccessProbability)
	assert.Equal(t, []string{"Complete 5 more nodes with detailed descriptions"}, m.MissingItems)
}

func TestScore_EmptyGraphWithRequirements(t *testing.T) {
	e := NewEngine(nil)
	reqs := []template.Requirement{
		{Category: "feature", Label: "Features", MinCount: 2},
		{Category: "datamodel", Label: "Data Models", MinCount: 1},
	}

	m := e.Score(spec.Snapshot{}, reqs)

	assert.Equal(t, 0, m.Completeness)
	assert.Equal(t, 0, m.SuccessProbability)
	assert.Equal(t, []string{"Add 2 more Features", "Add 1 more Data Models"}, m.MissingItems)
}

func TestScore_Templated(t *testing.T) {
	e := NewEngine(nil)
	reqs := []template.Requirement{
		{Category: "feature", Label: "Core Features", MinCount: 2},
		{Category: "datamodel", Label: "Data Models", MinCount: 1},
	}

	snap := spec.Snapshot{Nodes: []spec.NodeView{
		node("feature", "Login", goodDesc),
		node("feature", "Search", "short"),
	}}

	m := e.Score(snap, reqs)

	// One of three required slots met: round(1/3*100) = 33.
	assert.Equal(t, 33, m.Completeness)
	assert.Contains(t, m.MissingItems, "Complete 1 Core Features (add descriptions & details)")
	assert.Contains(t, m.MissingItems, "Add 1 more Data Models")
	assert.Equal(t, 2, m.CategoryCounts["feature"])
}

func TestScore_Templated_ExtrasDoNotOvercount(t *testing.T) {
	e := NewEngine(nil)
	reqs := []template.Requirement{{Category: "feature", Label: "Features", MinCount: 1}}

	snap := spec.Snapshot{Nodes: []spec.NodeView{
		node("feature", "One", goodDesc),
		node("feature", "Two", goodDesc),
		node("feature", "Three", goodDesc),
	}}

	m := e.Score(snap, reqs)

	assert.Equal(t, 100, m.Completeness, "complete nodes beyond minCount cap at the requirement")
	assert.Empty(t, m.MissingItems)
}

func TestScore_Untemplated_FloorOfFive(t *testing.T) {
	e := NewEngine(nil)

	snap := spec.Snapshot{Nodes: []spec.NodeView{
		node("feature", "One", goodDesc),
		node("feature", "Two", goodDesc),
	}}

	m := e.Score(snap, nil)

	// 2 complete of max(5, 2) nodes: round(2/5*100) = 40.
	assert.Equal(t, 40, m.Completeness)
	assert.Equal(t, []string{"Complete 3 more nodes with detailed descriptions"}, m.MissingItems)
}

func TestScore_Untemplated_LargeGraphUsesActualCount(t *testing.T) {
	e := NewEngine(nil)

	var nodes []spec.NodeView
	for i := 0; i < 8; i++ {
		nodes = append(nodes, node("feature", "Feature", goodDesc))
	}
	nodes = append(nodes, node("feature", "Stub", ""))
	nodes = append(nodes, node("feature", "Stub", ""))

	m := e.Score(spec.Snapshot{Nodes: nodes}, nil)

	// 8 complete of 10 nodes: 80. The floor no longer applies.
	assert.Equal(t, 80, m.Completeness)
	assert.Empty(t, m.MissingItems)
}

func TestSuccessProbability_Blend(t *testing.T) {
	e := NewEngine(nil)
	reqs := []template.Requirement{
		{Category: "feature", Label: "Features", MinCount: 2},
		{Category: "datamodel", Label: "Models", MinCount: 1},
		{Category: "technical", Label: "Tech", MinCount: 2},
	}

	dm := node("datamodel", "User", goodDesc)
	dm.Attributes.Fields = []string{"id"}
	t1 := node("technical", "API", goodDesc)
	t1.Attributes.Technology = "chi"
	t2 := node("technical", "DB", goodDesc)
	t2.Attributes.Technology = "DynamoDB"

	snap := spec.Snapshot{Nodes: []spec.NodeView{
		node("feature", "Login", goodDesc),
		node("feature", "Search", goodDesc),
		dm, t1, t2,
	}}

	m := e.Score(snap, reqs)

	require.Equal(t, 100, m.Completeness)
	// 100*0.7 + 1.0*20 + min(5, 3*1.25) + 5 = 98.75 → 99.
	assert.Equal(t, 99, m.SuccessProbability)
}

func TestSuccessProbability_ClampsAt100(t *testing.T) {
	e := NewEngine(nil)

	var nodes []spec.NodeView
	for _, c := range []string{"feature", "technical", "datamodel", "userstory", "notes"} {
		n := node(c, "Something", goodDesc)
		n.Attributes.Fields = []string{"id"}
		n.Attributes.Technology = "Go stack"
		nodes = append(nodes, n)
	}

	m := e.Score(spec.Snapshot{Nodes: nodes}, nil)
	assert.LessOrEqual(t, m.SuccessProbability, 100)
}
