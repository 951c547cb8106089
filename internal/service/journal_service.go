package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/model"
	"github.com/edusfera/journal-backend/internal/repository"
)

// JournalService creates journal sessions. Each WebSocket connection gets
// its own session; nothing is shared between them except the repositories.
type JournalService struct {
	roster *RosterService
	grades *repository.GradeRepository
	log    zerolog.Logger
}

func NewJournalService(roster *RosterService, grades *repository.GradeRepository, log zerolog.Logger) *JournalService {
	return &JournalService{roster: roster, grades: grades, log: log}
}

func (s *JournalService) NewSession(ctx context.Context, teacherID string) *JournalSession {
	return NewJournalSession(ctx, teacherID, s.roster, repoGradeStream{repo: s.grades}, s.log)
}

// repoGradeStream adapts the grade repository to the session's stream
// interface; the method set matches except for the concrete feed type.
type repoGradeStream struct {
	repo *repository.GradeRepository
}

func (g repoGradeStream) SubscribeRosterGrades(ctx context.Context, groupID, subjectID string, date time.Time) (RosterFeed, error) {
	return g.repo.SubscribeRosterGrades(ctx, groupID, subjectID, date)
}

func (g repoGradeStream) WriteGrade(ctx context.Context, studentID, subjectID string, date time.Time, value model.GradeValue) error {
	return g.repo.WriteGrade(ctx, studentID, subjectID, date, value)
}
