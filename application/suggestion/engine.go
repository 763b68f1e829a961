// Package suggestion applies collaborator-proposed edit batches to a
// graph. Batches are applied in order with skip-and-report semantics: an
// edit that cannot be resolved is recorded and the rest of the batch
// still runs.
package suggestion

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"specmap/domain/spec"
	"specmap/pkg/errors"
)

// GraphRenamer receives the new title when a rename edit is accepted.
// The caller propagates it to session metadata.
type GraphRenamer func(newTitle string)

// SkippedEdit records one edit that could not be applied.
type SkippedEdit struct {
	Index  int    `json:"index"`
	Kind   Kind   `json:"type"`
	Reason string `json:"reason"`
}

// Outcome reports what a batch application did. Summaries are
// display-ready lines, one per applied edit in batch order.
type Outcome struct {
	Applied   []string      `json:"applied"`
	Skipped   []SkippedEdit `json:"skipped"`
	NewNodes  []string      `json:"newNodeIds"`
	Renamed   bool          `json:"renamed"`
	NewTitle  string        `json:"newTitle,omitempty"`
}

// AppliedCount returns how many edits were applied.
func (o Outcome) AppliedCount() int { return len(o.Applied) }

// Summary joins the applied lines for the transcript.
func (o Outcome) Summary() string { return strings.Join(o.Applied, "\n") }

// Engine applies and rejects proposed edit batches.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a suggestion engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Apply runs a batch against the graph in order. Node references resolve
// against the live graph first, then against provisional ids introduced
// by earlier add_node edits in the same batch, then by label match as a
// last resort. Unresolvable edits are skipped and reported; they never
// abort the batch.
func (e *Engine) Apply(g *spec.Graph, edits []ProposedEdit, rename GraphRenamer) Outcome {
	out := Outcome{}
	provisional := make(map[string]string)

	for i, edit := range edits {
		switch edit.Kind {
		case KindAddNode:
			e.applyAddNode(g, edit, provisional, &out)
		case KindUpdateNode:
			e.applyUpdateNode(g, i, edit, provisional, &out)
		case KindAddEdge:
			e.applyAddEdge(g, i, edit, provisional, &out)
		case KindRename:
			e.applyRename(i, edit, rename, &out)
		default:
			out.Skipped = append(out.Skipped, SkippedEdit{
				Index:  i,
				Kind:   edit.Kind,
				Reason: fmt.Sprintf("unknown edit type %q", edit.Kind),
			})
		}
	}

	e.logger.Info("suggestion batch applied",
		zap.String("graph_id", g.ID()),
		zap.Int("applied", len(out.Applied)),
		zap.Int("skipped", len(out.Skipped)),
	)
	return out
}

func (e *Engine) applyAddNode(g *spec.Graph, edit ProposedEdit, provisional map[string]string, out *Outcome) {
	attrs := edit.Attributes()
	if strings.TrimSpace(attrs.Label) == "" {
		attrs.Label = "New Node"
	}
	if strings.TrimSpace(attrs.Group) == "" {
		attrs.Group = "Uncategorized"
	}
	category := edit.Category()
	id := g.AddNode(category, attrs, nil)
	if edit.NodeID != "" {
		provisional[edit.NodeID] = id
	}
	out.NewNodes = append(out.NewNodes, id)
	out.Applied = append(out.Applied, fmt.Sprintf("%s %s", category.Glyph(), attrs.Label))
}

func (e *Engine) applyUpdateNode(g *spec.Graph, i int, edit ProposedEdit, provisional map[string]string, out *Outcome) {
	if edit.Updates == nil || edit.Updates.IsZero() {
		out.Skipped = append(out.Skipped, SkippedEdit{Index: i, Kind: edit.Kind, Reason: "update carries no changes"})
		return
	}
	id, err := resolveRef(g, provisional, edit.NodeID, edit.Label)
	if err != nil {
		e.reportSkip(i, edit, err, out)
		return
	}
	if err := g.UpdateNode(id, *edit.Updates); err != nil {
		e.reportSkip(i, edit, err, out)
		return
	}
	label := g.Node(id).Label()
	if label == "" {
		label = "node"
	}
	out.Applied = append(out.Applied, fmt.Sprintf("✎ Updated: %s", label))
}

func (e *Engine) applyAddEdge(g *spec.Graph, i int, edit ProposedEdit, provisional map[string]string, out *Outcome) {
	source, err := resolveRef(g, provisional, edit.Source, edit.Source)
	if err != nil {
		e.reportSkip(i, edit, err, out)
		return
	}
	target, err := resolveRef(g, provisional, edit.Target, edit.Target)
	if err != nil {
		e.reportSkip(i, edit, err, out)
		return
	}
	if _, err := g.AddEdge(source, target, edit.Label); err != nil {
		e.reportSkip(i, edit, err, out)
		return
	}
	out.Applied = append(out.Applied, fmt.Sprintf("⎯ %s → %s", g.Node(source).Label(), g.Node(target).Label()))
}

// applyRename never touches the graph itself; the title lives with the
// caller, which hears about it through the callback.
func (e *Engine) applyRename(i int, edit ProposedEdit, rename GraphRenamer, out *Outcome) {
	title := strings.TrimSpace(edit.NewTitle)
	if title == "" {
		out.Skipped = append(out.Skipped, SkippedEdit{Index: i, Kind: edit.Kind, Reason: "rename carries no title"})
		return
	}
	if rename != nil {
		rename(title)
	}
	out.Renamed = true
	out.NewTitle = title
	out.Applied = append(out.Applied, fmt.Sprintf("✎ Project: %q", title))
}

func (e *Engine) reportSkip(i int, edit ProposedEdit, err error, out *Outcome) {
	out.Skipped = append(out.Skipped, SkippedEdit{Index: i, Kind: edit.Kind, Reason: err.Error()})
	e.logger.Warn("skipped suggestion",
		zap.Int("index", i),
		zap.String("type", string(edit.Kind)),
		zap.Error(err),
	)
}

// resolveRef maps a node reference to a real node id. Resolution order:
// existing graph id, provisional id from the current batch, then a label
// match across the graph.
func resolveRef(g *spec.Graph, provisional map[string]string, ref, labelHint string) (string, error) {
	if ref != "" {
		if g.HasNode(ref) {
			return ref, nil
		}
		if real, ok := provisional[ref]; ok {
			return real, nil
		}
		if n := g.FindAnyByLabel(ref); n != nil {
			return n.ID(), nil
		}
	}
	if labelHint != "" && labelHint != ref {
		if n := g.FindAnyByLabel(labelHint); n != nil {
			return n.ID(), nil
		}
	}
	if ref == "" {
		ref = labelHint
	}
	return "", errors.NewUnresolvedBatchReference(ref)
}

// Reject produces the acknowledgement for a discarded batch: one line per
// distinct edit kind, in order of first appearance. The graph is not
// touched.
func (e *Engine) Reject(edits []ProposedEdit) []string {
	seen := make(map[Kind]bool)
	var lines []string
	for _, edit := range edits {
		if seen[edit.Kind] {
			continue
		}
		seen[edit.Kind] = true
		switch edit.Kind {
		case KindAddNode:
			lines = append(lines, "new node suggestions")
		case KindUpdateNode:
			lines = append(lines, "node updates")
		case KindAddEdge:
			lines = append(lines, "connection suggestions")
		case KindRename:
			lines = append(lines, "project rename")
		default:
			lines = append(lines, "changes")
		}
	}
	return lines
}
