package models

import "time"

// Step types.
const (
	StepMessage   = "message"
	StepCondition = "condition"
	StepWait      = "wait"
)

// StepTypes lists every accepted step type.
var StepTypes = []any{StepMessage, StepCondition, StepWait}

// FlowFolder groups flows.
type FlowFolder struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	FlowCount int       `json:"flow_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Flow is a chatbot conversation definition.
type Flow struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"client_id"`
	FolderID  *int64     `json:"folder_id"`
	Name      string     `json:"name"`
	Steps     []FlowStep `json:"steps,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FlowStep is one node of a flow. Next/true/false reference other steps of
// the same flow.
type FlowStep struct {
	ID               int64     `json:"id"`
	ClientID         int64     `json:"client_id"`
	FlowID           int64     `json:"flow_id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Type             string    `json:"type"`
	NextStepID       *int64    `json:"next_step_id"`
	ConditionTrueID  *int64    `json:"condition_true_id"`
	ConditionFalseID *int64    `json:"condition_false_id"`
	Position         int       `json:"position"`
	CreatedAt        time.Time `json:"created_at"`
}

// Refs returns the step's outgoing references in a fixed order
// (next, true, false). Entries may be nil.
func (s *FlowStep) Refs() [3]*int64 {
	return [3]*int64{s.NextStepID, s.ConditionTrueID, s.ConditionFalseID}
}
