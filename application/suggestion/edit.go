package suggestion

import (
	"encoding/json"
	"strings"

	"specmap/domain/spec"
)

// Kind identifies the operation a proposed edit performs.
type Kind string

const (
	KindAddNode    Kind = "add_node"
	KindUpdateNode Kind = "update_node"
	KindAddEdge    Kind = "add_edge"
	KindRename     Kind = "rename_project"
)

// Impact grades how much a batch would change the graph.
type Impact string

const (
	ImpactMinor    Impact = "minor"
	ImpactModerate Impact = "moderate"
	ImpactMajor    Impact = "major"
)

// ParseImpact normalizes a raw impact string, defaulting to minor.
func ParseImpact(s string) Impact {
	switch Impact(strings.ToLower(strings.TrimSpace(s))) {
	case ImpactModerate:
		return ImpactModerate
	case ImpactMajor:
		return ImpactMajor
	default:
		return ImpactMinor
	}
}

// ProposedEdit is one edit in a collaborator batch. Its shape mirrors the
// collaborator's JSON: a flat record with a type tag and only the fields
// relevant to that kind populated.
//
// For add_node edits NodeID carries a provisional id: a batch-local name
// later edits in the same batch may use to refer to the node before it
// has a real id.
type ProposedEdit struct {
	Kind        Kind   `json:"type"`
	NodeType    string `json:"nodeType,omitempty"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Group       string `json:"category,omitempty"`

	Fields     []string        `json:"fields,omitempty"`
	Technology string          `json:"technology,omitempty"`
	Todos      []spec.TodoItem `json:"todos,omitempty"`

	NodeID  string                `json:"nodeId,omitempty"`
	Updates *spec.AttributeUpdate `json:"updates,omitempty"`

	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`

	NewTitle string `json:"newTitle,omitempty"`

	Rationale string `json:"rationale,omitempty"`
}

// Category returns the node category an add_node edit targets, defaulting
// to feature when absent or unknown.
func (e ProposedEdit) Category() spec.Category {
	c := spec.Category(strings.ToLower(strings.TrimSpace(e.NodeType)))
	if !c.IsValid() {
		return spec.CategoryFeature
	}
	return c
}

// Attributes assembles the node attributes for an add_node edit.
func (e ProposedEdit) Attributes() spec.Attributes {
	return spec.Attributes{
		Label:       e.Label,
		Description: e.Description,
		Group:       e.Group,
		Fields:      e.Fields,
		Technology:  e.Technology,
		Todos:       e.Todos,
	}
}

// Batch is an ordered list of proposed edits with the collaborator's
// impact grade.
type Batch struct {
	Edits         []ProposedEdit `json:"suggestions"`
	Impact        Impact         `json:"impact"`
	NeedsApproval bool           `json:"needsApproval"`
}

// MarshalEdits serializes edits for attachment to a transcript message.
func MarshalEdits(edits []ProposedEdit) json.RawMessage {
	if len(edits) == 0 {
		return nil
	}
	raw, err := json.Marshal(edits)
	if err != nil {
		return nil
	}
	return raw
}

// UnmarshalEdits restores edits attached to a transcript message.
func UnmarshalEdits(raw json.RawMessage) []ProposedEdit {
	if len(raw) == 0 {
		return nil
	}
	var edits []ProposedEdit
	if err := json.Unmarshal(raw, &edits); err != nil {
		return nil
	}
	return edits
}
