package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specmap/domain/spec"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, tpl := range c.All() {
		ids = append(ids, tpl.ID)
	}
	assert.Equal(t, []string{"saas-app", "api-service", "mobile-app", "spec-driven", "blank"}, ids)
}

func TestCatalog_Requirements(t *testing.T) {
	c := MustLoadCatalog()

	reqs := c.Requirements("saas-app")
	require.Len(t, reqs, 3)
	assert.Equal(t, "feature", reqs[0].Category)
	assert.Equal(t, 3, reqs[0].MinCount)

	assert.Nil(t, c.Requirements("blank"), "blank template imposes no requirements")
	assert.Nil(t, c.Requirements("nope"))
}

func TestTemplate_Instantiate(t *testing.T) {
	c := MustLoadCatalog()
	tpl := c.Get("saas-app")
	require.NotNil(t, tpl)

	g := tpl.Instantiate("g1", "My SaaS")

	assert.Equal(t, "My SaaS", g.Title())
	assert.Equal(t, 6, g.NodeCount())
	assert.Equal(t, 5, g.EdgeCount())
	assert.Empty(t, g.UncommittedEvents(), "seeding raises no events")

	// Template refs were remapped to generated ids and edges resolve.
	auth := g.FindByLabel(spec.CategoryFeature, "Authentication")
	require.NotNil(t, auth)
	dash := g.FindByLabel(spec.CategoryFeature, "Dashboard")
	require.NotNil(t, dash)

	var found bool
	for _, e := range g.Edges() {
		if e.Source() == auth.ID() && e.Target() == dash.ID() {
			found = true
			assert.Equal(t, "requires", e.Label())
		}
	}
	assert.True(t, found)
}

func TestTemplate_Instantiate_Blank(t *testing.T) {
	g := MustLoadCatalog().Get("blank").Instantiate("g1", "Empty")
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestTemplate_Instantiate_SpecDrivenTodos(t *testing.T) {
	g := MustLoadCatalog().Get("spec-driven").Instantiate("g1", "Spec")

	n := g.FindByLabel(spec.CategoryTodo, "Implementation Checklist")
	require.NotNil(t, n)
	require.Len(t, n.Attributes().Todos, 6)
	assert.Equal(t, "Setup project structure", n.Attributes().Todos[0].Text)
	assert.False(t, n.Attributes().Todos[0].Completed)
}
