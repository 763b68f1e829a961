// Package scoring grades a graph's readiness: how complete the nodes are
// against their template requirements, and a derived probability that the
// project described by the graph would succeed.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"specmap/domain/config"
	"specmap/domain/spec"
	"specmap/domain/template"
)

// Metrics is the result of scoring a graph.
type Metrics struct {
	Completeness       int            `json:"completeness"`
	SuccessProbability int            `json:"successProbability"`
	MissingItems       []string       `json:"missingItems"`
	CategoryCounts     map[string]int `json:"nodeTypeCounts"`
}

// Engine scores graphs against configurable thresholds.
type Engine struct {
	cfg *config.DomainConfig
}

// NewEngine creates a scoring engine. A nil config uses the defaults.
func NewEngine(cfg *config.DomainConfig) *Engine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Engine{cfg: cfg}
}

// IsComplete reports whether a node is filled out enough to count toward
// completeness: a meaningful label, a description with substance, and the
// category-specific details present.
func (e *Engine) IsComplete(n spec.NodeView) bool {
	if len(strings.TrimSpace(n.Attributes.Label)) < e.cfg.MinLabelLength {
		return false
	}
	if len(strings.TrimSpace(n.Attributes.Description)) < e.cfg.MinDescriptionLength {
		return false
	}
	switch spec.Category(n.Category) {
	case spec.CategoryDataModel:
		if len(n.Attributes.Fields) == 0 {
			return false
		}
	case spec.CategoryTechnical:
		if len(strings.TrimSpace(n.Attributes.Technology)) < e.cfg.MinTechnologyLength {
			return false
		}
	}
	return true
}

// Score grades a graph snapshot. When the template imposes requirements,
// completeness measures complete nodes against the required counts per
// category; otherwise it measures complete nodes against a minimum node
// count floor. Scoring never fails and an empty graph scores zero.
func (e *Engine) Score(snap spec.Snapshot, reqs []template.Requirement) Metrics {
	counts := make(map[string]int)
	completeCounts := make(map[string]int)
	for _, n := range snap.Nodes {
		cat := n.Category
		if cat == "" {
			cat = "unknown"
		}
		counts[cat]++
		if e.IsComplete(n) {
			completeCounts[cat]++
		}
	}

	if len(reqs) > 0 {
		return e.scoreTemplated(snap, reqs, counts, completeCounts)
	}
	return e.scoreUntemplated(snap, counts, completeCounts)
}

func (e *Engine) scoreTemplated(snap spec.Snapshot, reqs []template.Requirement, counts, completeCounts map[string]int) Metrics {
	totalRequired := 0
	totalMet := 0
	missing := []string{}

	for _, req := range reqs {
		total := counts[req.Category]
		complete := completeCounts[req.Category]
		met := complete
		if met > req.MinCount {
			met = req.MinCount
		}
		totalRequired += req.MinCount
		totalMet += met

		if complete < req.MinCount {
			if total < req.MinCount {
				missing = append(missing, fmt.Sprintf("Add %d more %s", req.MinCount-total, req.Label))
			}
			if incomplete := total - complete; incomplete > 0 {
				missing = append(missing, fmt.Sprintf("Complete %d %s (add descriptions & details)", incomplete, req.Label))
			}
		}
	}

	completeness := 0
	if totalRequired > 0 {
		completeness = int(math.Round(float64(totalMet) / float64(totalRequired) * 100))
	}

	return Metrics{
		Completeness:       completeness,
		SuccessProbability: e.successProbability(snap, completeness, counts, completeCounts),
		MissingItems:       missing,
		CategoryCounts:     counts,
	}
}

func (e *Engine) scoreUntemplated(snap spec.Snapshot, counts, completeCounts map[string]int) Metrics {
	total := len(snap.Nodes)
	complete := 0
	for _, c := range completeCounts {
		complete += c
	}

	completeness := 0
	if total > 0 {
		floor := e.cfg.UntemplatedFloor
		denom := total
		if denom < floor {
			denom = floor
		}
		completeness = int(math.Round(float64(complete) / float64(denom) * 100))
	}

	missing := []string{}
	if complete < e.cfg.UntemplatedFloor {
		missing = append(missing, fmt.Sprintf("Complete %d more nodes with detailed descriptions", e.cfg.UntemplatedFloor-complete))
	}

	return Metrics{
		Completeness:       completeness,
		SuccessProbability: e.successProbability(snap, completeness, counts, completeCounts),
		MissingItems:       missing,
		CategoryCounts:     counts,
	}
}

// successProbability blends completeness with node quality, category
// diversity, and graph size into a single 0-100 score.
func (e *Engine) successProbability(snap spec.Snapshot, completeness int, counts, completeCounts map[string]int) int {
	total := len(snap.Nodes)
	if total == 0 {
		return 0
	}

	probability := float64(completeness) * e.cfg.CompletenessWeight

	complete := 0
	for _, c := range completeCounts {
		complete += c
	}
	probability += float64(complete) / float64(total) * e.cfg.QualityWeight

	diversity := float64(len(counts)) * e.cfg.DiversityPerCategory
	if diversity > e.cfg.DiversityCap {
		diversity = e.cfg.DiversityCap
	}
	probability += diversity

	if total >= e.cfg.VolumeTarget {
		probability += e.cfg.VolumeBonus
	} else {
		probability += float64(total) / float64(e.cfg.VolumeTarget) * e.cfg.VolumeBonus
	}

	if probability > 100 {
		probability = 100
	}
	return int(math.Round(probability))
}
