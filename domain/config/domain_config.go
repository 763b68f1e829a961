package config

import "time"

// DomainConfig holds the configurable business rules and thresholds.
type DomainConfig struct {
	// Completeness rules
	MinLabelLength       int
	MinDescriptionLength int
	MinTechnologyLength  int

	// Scoring weights
	CompletenessWeight   float64
	QualityWeight        float64
	DiversityCap         float64
	DiversityPerCategory float64
	VolumeBonus          float64
	VolumeTarget         int

	// Untemplated graphs are scored against a minimum node count.
	UntemplatedFloor int

	// Conversation rules
	HistoryWindow      int
	ResumeNudgeAt      int
	AutosaveDebounce   time.Duration
	CollaboratorLimit  time.Duration
	DefaultGraphTitle  string
	MaxMessageLength   int
	MaxTitleLength     int
}

// DefaultDomainConfig returns the default domain configuration.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinLabelLength:       3,
		MinDescriptionLength: 20,
		MinTechnologyLength:  3,

		CompletenessWeight:   0.7,
		QualityWeight:        20,
		DiversityCap:         5,
		DiversityPerCategory: 1.25,
		VolumeBonus:          5,
		VolumeTarget:         5,

		UntemplatedFloor: 5,

		HistoryWindow:     6,
		ResumeNudgeAt:     30,
		AutosaveDebounce:  2 * time.Second,
		CollaboratorLimit: 30 * time.Second,
		DefaultGraphTitle: "Untitled Project",
		MaxMessageLength:  8000,
		MaxTitleLength:    200,
	}
}

// Validate checks configuration consistency.
func (c *DomainConfig) Validate() []string {
	var problems []string
	if c.MinLabelLength <= 0 {
		problems = append(problems, "MinLabelLength must be positive")
	}
	if c.MinDescriptionLength <= 0 {
		problems = append(problems, "MinDescriptionLength must be positive")
	}
	if c.HistoryWindow <= 0 {
		problems = append(problems, "HistoryWindow must be positive")
	}
	if c.UntemplatedFloor <= 0 {
		problems = append(problems, "UntemplatedFloor must be positive")
	}
	if c.AutosaveDebounce < 0 {
		problems = append(problems, "AutosaveDebounce cannot be negative")
	}
	return problems
}

// IsValid returns true when the configuration has no problems.
func (c *DomainConfig) IsValid() bool {
	return len(c.Validate()) == 0
}
