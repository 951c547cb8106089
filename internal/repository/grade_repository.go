package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/model"
)

// GradeRepository owns grade records keyed by (student, subject, day) and the
// live subscriptions layered on top of them. Postgres holds the authoritative
// rows; Redis Pub/Sub fans out change notifications so subscriptions re-emit
// fresh snapshots instead of polling.
type GradeRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewGradeRepository(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *GradeRepository {
	return &GradeRepository{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "grade_repository").Logger(),
	}
}

// WriteGrade upserts the single record at (studentID, subjectID, date) and
// publishes the change. Last writer wins by store ordering; there is no
// client-side conflict resolution and no implicit retry.
func (r *GradeRepository) WriteGrade(ctx context.Context, studentID, subjectID string, date time.Time, value model.GradeValue) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO grades (student_id, subject_id, grade_date, value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (student_id, subject_id, grade_date) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = NOW()`,
		studentID, subjectID, date, string(value))
	if err != nil {
		return fmt.Errorf("write grade: %w", err)
	}

	payload, _ := json.Marshal(GradeChange{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      date.Format(model.DateLayout),
	})
	if err := r.rdb.Publish(ctx, GradeChangeChannel, payload).Err(); err != nil {
		// The row is committed; subscribers catch up on their next snapshot.
		r.log.Error().Err(err).
			Str("student_id", studentID).
			Str("subject_id", subjectID).
			Msg("Publish grade change failed")
	}
	return nil
}

// GetStudentSubjectGrades returns the full date→value mapping for one
// (student, subject) pair. A pair with no grades yields an empty map.
func (r *GradeRepository) GetStudentSubjectGrades(ctx context.Context, studentID, subjectID string) (map[string]model.GradeValue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT grade_date, value FROM grades WHERE student_id = $1 AND subject_id = $2`,
		studentID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load student grades: %w", err)
	}
	defer rows.Close()

	grades := make(map[string]model.GradeValue)
	for rows.Next() {
		var d time.Time
		var v string
		if err := rows.Scan(&d, &v); err != nil {
			return nil, err
		}
		grades[d.Format(model.DateLayout)] = model.GradeValue(v)
	}
	return grades, rows.Err()
}

// rosterGrades returns studentID→value for the given members on one
// (subject, day). Students without a record that day are simply absent from
// the map.
func (r *GradeRepository) rosterGrades(ctx context.Context, subjectID string, date time.Time, memberIDs []string) (map[string]model.GradeValue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, value FROM grades
		 WHERE subject_id = $1 AND grade_date = $2 AND student_id = ANY($3)`,
		subjectID, date, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("load roster grades: %w", err)
	}
	defer rows.Close()

	grades := make(map[string]model.GradeValue)
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		grades[id] = model.GradeValue(v)
	}
	return grades, rows.Err()
}

// Subscription is a lazy, restartable stream of full snapshots. Every
// emission replaces the previous one entirely; consumers must treat each as
// authoritative. Close deterministically deregisters the Pub/Sub listener;
// an unclosed subscription leaks it permanently.
type Subscription struct {
	ch     chan map[string]model.GradeValue
	cancel context.CancelFunc
}

// Updates is the emission channel. It is closed after Close or when the
// subscription context ends.
func (s *Subscription) Updates() <-chan map[string]model.GradeValue {
	return s.ch
}

// Close cancels the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
}

// SubscribeStudentSubjectGrades opens a live snapshot stream of one
// student's grades in one subject, keyed by date. The first emission carries
// the current state; later ones follow matching writes.
func (r *GradeRepository) SubscribeStudentSubjectGrades(ctx context.Context, studentID, subjectID string) (*Subscription, error) {
	match := func(c GradeChange) bool {
		return c.StudentID == studentID && c.SubjectID == subjectID
	}
	snapshot := func(ctx context.Context) (map[string]model.GradeValue, error) {
		return r.GetStudentSubjectGrades(ctx, studentID, subjectID)
	}
	return r.subscribeSnapshots(ctx, match, snapshot)
}

// SubscribeRosterGrades opens a live snapshot stream of one group's grades
// for one (subject, day), keyed by student ID. Group membership is captured
// once at subscribe time; a write for any member on the same subject and day
// triggers a re-emission.
func (r *GradeRepository) SubscribeRosterGrades(ctx context.Context, groupID, subjectID string, date time.Time) (*Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users WHERE group_id = $1 AND role = $2`,
		groupID, model.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}
	defer rows.Close()

	members := make(map[string]bool)
	var memberIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members[id] = true
		memberIDs = append(memberIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dateKey := date.Format(model.DateLayout)
	match := func(c GradeChange) bool {
		return c.SubjectID == subjectID && c.Date == dateKey && members[c.StudentID]
	}
	snapshot := func(ctx context.Context) (map[string]model.GradeValue, error) {
		return r.rosterGrades(ctx, subjectID, date, memberIDs)
	}
	return r.subscribeSnapshots(ctx, match, snapshot)
}

// subscribeSnapshots wires a snapshot loader to the change feed: emit once,
// then re-emit after every matching change. The pump goroutine owns both the
// Pub/Sub handle and the emission channel, so Close leaves nothing behind.
func (r *GradeRepository) subscribeSnapshots(
	ctx context.Context,
	match func(GradeChange) bool,
	snapshot func(context.Context) (map[string]model.GradeValue, error),
) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	pubsub := r.rdb.Subscribe(subCtx, GradeChangeChannel)
	// Confirm the subscription is on the wire before taking the initial
	// snapshot, so no write can slip between snapshot and listen.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe grade feed: %w", err)
	}

	ch := make(chan map[string]model.GradeValue, 1)
	sub := &Subscription{ch: ch, cancel: cancel}

	go func() {
		defer close(ch)
		defer pubsub.Close()

		if !r.emitSnapshot(subCtx, ch, snapshot) {
			return
		}

		msgs := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change GradeChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					r.log.Warn().Err(err).Msg("Malformed change feed payload")
					continue
				}
				if !match(change) {
					continue
				}
				if !r.emitSnapshot(subCtx, ch, snapshot) {
					return
				}
			}
		}
	}()

	return sub, nil
}

// emitSnapshot loads and delivers one snapshot. A load failure keeps the
// subscription alive (the next change retries); only cancellation stops it.
func (r *GradeRepository) emitSnapshot(
	ctx context.Context,
	ch chan<- map[string]model.GradeValue,
	snapshot func(context.Context) (map[string]model.GradeValue, error),
) bool {
	snap, err := snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Msg("Grade snapshot failed")
		}
		return ctx.Err() == nil
	}
	select {
	case ch <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
