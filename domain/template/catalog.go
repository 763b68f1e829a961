package template

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var catalogYAML []byte

// BlankID is the template used when a project starts without one.
const BlankID = "blank"

// Catalog holds the built-in templates, in declaration order.
type Catalog struct {
	templates []*Template
	byID      map[string]*Template
}

// LoadCatalog parses the embedded template definitions.
func LoadCatalog() (*Catalog, error) {
	var doc struct {
		Templates []*Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	c := &Catalog{
		templates: doc.Templates,
		byID:      make(map[string]*Template, len(doc.Templates)),
	}
	for _, t := range doc.Templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	if _, ok := c.byID[BlankID]; !ok {
		return nil, fmt.Errorf("catalog is missing the %q template", BlankID)
	}
	return c, nil
}

// MustLoadCatalog panics when the embedded catalog fails to parse. The
// catalog ships with the binary so a parse failure is a build defect.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every template in declaration order.
func (c *Catalog) All() []*Template {
	out := make([]*Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get returns the template with the given id, or nil when unknown.
func (c *Catalog) Get(id string) *Template {
	return c.byID[id]
}

// Requirements returns a template's requirement list, or nil for an
// unknown or requirement-free template. Scoring treats nil as the
// untemplated case.
func (c *Catalog) Requirements(id string) []Requirement {
	t := c.byID[id]
	if t == nil || len(t.Requirements) == 0 {
		return nil
	}
	out := make([]Requirement, len(t.Requirements))
	copy(out, t.Requirements)
	return out
}
