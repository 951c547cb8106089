package websocket

import "github.com/edusfera/journal-backend/internal/service"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart         Action = "start"
	ActionSelectGroup   Action = "select_group"
	ActionSelectSubject Action = "select_subject"
	ActionChangeDate    Action = "change_date"
	ActionAssignGrade   Action = "assign_grade"
	ActionBack          Action = "back"
	ActionPing          Action = "ping"
)

// IntentRequest carries every journal action; unused fields stay empty.
type IntentRequest struct {
	Action    Action `json:"action"`
	GroupID   string `json:"group_id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Date      string `json:"date,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	Value     string `json:"value,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventGrades Event = "grades"
	EventPong   Event = "pong"
)

// SessionEventEnvelope wraps a journal session event for the wire.
type SessionEventEnvelope struct {
	Event string `json:"event"`
	service.SessionEvent
}

// StudentGradesEvent is one full snapshot on the student grade stream. The
// average is recomputed per emission, never patched.
type StudentGradesEvent struct {
	Event       Event             `json:"event"`
	SubjectID   string            `json:"subject_id"`
	Grades      map[string]string `json:"grades"`
	Average     float64           `json:"average"`
	SampleCount int               `json:"sample_count"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
