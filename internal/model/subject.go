package model

import "time"

// Subject is an academic discipline owned by one teacher and taught to a set
// of groups.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}
