package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/model"
	"github.com/edusfera/journal-backend/internal/repository"
)

// summaryCacheTTL bounds staleness if an invalidation is ever lost.
const summaryCacheTTL = 10 * time.Minute

// SummaryCacheKey is the Redis key holding one student's cached summary.
// The cache worker deletes it whenever a grade lands for that student.
func SummaryCacheKey(studentID string) string {
	return "journal:summary:" + studentID
}

// SubjectSummary is one subject's aggregate line in the student summary.
type SubjectSummary struct {
	SubjectID   string     `json:"subject_id"`
	Name        string     `json:"name"`
	Average     float64    `json:"average"`
	SampleCount int        `json:"sample_count"`
	Tier        model.Tier `json:"tier"`
}

// GradesSummary is the student's full performance picture: every subject of
// their group, graded or not, plus the overall average across subjects that
// have data.
type GradesSummary struct {
	Subjects    []SubjectSummary `json:"subjects"`
	Overall     float64          `json:"overall"`
	OverallTier model.Tier       `json:"overall_tier"`
}

// GradesService serves the student-facing read side: cached summaries and
// calendar projections.
type GradesService struct {
	roster *RosterService
	grades *repository.GradeRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

func NewGradesService(roster *RosterService, grades *repository.GradeRepository, rdb *redis.Client, log zerolog.Logger) *GradesService {
	return &GradesService{
		roster: roster,
		grades: grades,
		rdb:    rdb,
		log:    log.With().Str("component", "grades_service").Logger(),
	}
}

// Summary computes the student's per-subject and overall averages, served
// from Redis when a fresh copy exists. Cache trouble degrades to a direct
// computation, never to an error.
func (s *GradesService) Summary(ctx context.Context, studentID string) (*GradesSummary, error) {
	key := SummaryCacheKey(studentID)
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached GradesSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding malformed cached summary")
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("Summary cache read failed")
	}

	summary, err := s.computeSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.rdb.Set(ctx, key, raw, summaryCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Summary cache write failed")
		}
	}
	return summary, nil
}

func (s *GradesService) computeSummary(ctx context.Context, studentID string) (*GradesSummary, error) {
	subjects, err := s.roster.SubjectsForStudent(ctx, studentID)
	if err != nil {
		return nil, storeError(err)
	}

	summary := &GradesSummary{Subjects: make([]SubjectSummary, 0, len(subjects))}
	var averages []float64
	for _, subj := range subjects {
		grades, err := s.grades.GetStudentSubjectGrades(ctx, studentID, subj.ID)
		if err != nil {
			return nil, storeError(err)
		}
		avg, count := SubjectAverage(grades)
		summary.Subjects = append(summary.Subjects, SubjectSummary{
			SubjectID:   subj.ID,
			Name:        subj.Name,
			Average:     avg,
			SampleCount: count,
			Tier:        ClassifyAverage(avg),
		})
		averages = append(averages, avg)
	}
	summary.Overall = OverallAverage(averages)
	summary.OverallTier = ClassifyAverage(summary.Overall)
	return summary, nil
}

// MonthGrades projects one subject's grades onto the requested month's
// calendar grid.
func (s *GradesService) MonthGrades(ctx context.Context, studentID, subjectID string, year int, month time.Month) ([]model.DayCell, error) {
	grades, err := s.grades.GetStudentSubjectGrades(ctx, studentID, subjectID)
	if err != nil {
		return nil, storeError(err)
	}
	return ProjectMonth(year, month, grades, time.Now().UTC(), s.log), nil
}

// SubscribeSubject opens the live grade stream one student WebSocket rides.
func (s *GradesService) SubscribeSubject(ctx context.Context, studentID, subjectID string) (*repository.Subscription, error) {
	return s.grades.SubscribeStudentSubjectGrades(ctx, studentID, subjectID)
}

// storeError tags connectivity failures so handlers can answer with a
// retryable status instead of a generic 500.
func storeError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}
