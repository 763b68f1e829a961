package template

import (
	"specmap/domain/spec"
)

// Requirement names a node category a template expects, with a display
// label and the minimum count needed for the graph to be considered
// complete against the template.
type Requirement struct {
	Category string `yaml:"category" json:"type"`
	Label    string `yaml:"label" json:"label"`
	MinCount int    `yaml:"minCount" json:"minCount"`
}

// seedTodo is a checklist entry in a template's seed content.
type seedTodo struct {
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed"`
}

// seedNode is a node definition in the template YAML.
type seedNode struct {
	Ref         string     `yaml:"ref"`
	Category    string     `yaml:"category"`
	X           float64    `yaml:"x"`
	Y           float64    `yaml:"y"`
	Label       string     `yaml:"label"`
	Description string     `yaml:"description"`
	Fields      []string   `yaml:"fields"`
	Technology  string     `yaml:"technology"`
	Todos       []seedTodo `yaml:"todos"`
}

// seedEdge is an edge definition in the template YAML, referring to
// nodes by their template-local ref.
type seedEdge struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Label  string `yaml:"label"`
}

// Template is a predefined starting point for a new graph: seed nodes and
// edges plus the category requirements used to score completeness.
type Template struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Description  string        `yaml:"description" json:"description"`
	Group        string        `yaml:"group" json:"category"`
	Icon         string        `yaml:"icon" json:"icon,omitempty"`
	Requirements []Requirement `yaml:"requirements" json:"requiredNodeTypes,omitempty"`
	Nodes        []seedNode    `yaml:"nodes" json:"-"`
	Edges        []seedEdge    `yaml:"edges" json:"-"`
}

// Instantiate builds a fresh graph from the template's seed content.
// Template-local refs are mapped to generated node ids; edges whose refs
// don't resolve are dropped.
func (t *Template) Instantiate(graphID, title string) *spec.Graph {
	g := spec.NewGraph(graphID, title)
	refs := make(map[string]string, len(t.Nodes))
	for _, sn := range t.Nodes {
		attrs := spec.Attributes{
			Label:       sn.Label,
			Description: sn.Description,
			Fields:      sn.Fields,
			Technology:  sn.Technology,
		}
		for _, td := range sn.Todos {
			attrs.Todos = append(attrs.Todos, spec.TodoItem{Text: td.Text, Completed: td.Completed})
		}
		pos := spec.Position{X: sn.X, Y: sn.Y}
		refs[sn.Ref] = g.AddNode(spec.Category(sn.Category), attrs, &pos)
	}
	for _, se := range t.Edges {
		src, ok := refs[se.Source]
		if !ok {
			continue
		}
		dst, ok := refs[se.Target]
		if !ok {
			continue
		}
		_, _ = g.AddEdge(src, dst, se.Label)
	}
	g.MarkEventsCommitted()
	return g
}
