package repository

// GradeChangeChannel is the Redis Pub/Sub channel carrying journal writes.
// Every grade subscription and the summary cache worker listen here.
const GradeChangeChannel = "journal:grade_changes"

// GradeChange is the change-feed payload published after every grade write.
// Subscribers use it only to decide whether to re-query; the snapshot itself
// always comes from the store, so a lost message degrades to a late emission
// rather than wrong data.
type GradeChange struct {
	StudentID string `json:"student_id"`
	SubjectID string `json:"subject_id"`
	Date      string `json:"date"`
}
