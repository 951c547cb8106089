package model

import "time"

// Group is a student cohort. Its subject assignments are ordered and define
// which subjects its students are evaluated in.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
