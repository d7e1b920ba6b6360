package model

import "time"

// Client is an organization whose reputation is being tracked.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Competitor is tracked alongside a client for comparison.
type Competitor struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one actionable suggestion in an Insight.
type Recommendation struct {
	Platform  string   `json:"platform"`
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Rationale string   `json:"rationale"`
}

// PatientPrompt is a question customers are likely asking, tied to a theme.
type PatientPrompt struct {
	Question    string `json:"question"`
	Theme       string `json:"theme"`
	Opportunity string `json:"opportunity"`
}

// Insight is a generated strategic summary over a client's analyses.
type Insight struct {
	ID              string           `json:"id"`
	ClientID        string           `json:"client_id"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	PatientPrompts  []PatientPrompt  `json:"patient_prompts"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
