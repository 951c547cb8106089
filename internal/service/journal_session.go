package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/model"
)

// JournalState names a position in the teacher's drill-down. Transitions are
// strictly ordered: idle → group list → subject list → roster view, with
// Back walking the same path in reverse.
type JournalState string

const (
	StateIdle        JournalState = "idle"
	StateGroupList   JournalState = "group_list"
	StateSubjectList JournalState = "subject_list"
	StateRosterView  JournalState = "roster_view"
)

// RosterFeed is a live snapshot stream for one roster view. Close must
// deterministically stop emissions.
type RosterFeed interface {
	Updates() <-chan map[string]model.GradeValue
	Close()
}

// rosterDirectory answers the catalog lookups the drill-down needs.
type rosterDirectory interface {
	GroupsForTeacher(ctx context.Context, teacherID string) ([]model.Group, error)
	SubjectsForGroup(ctx context.Context, teacherID, groupID string) ([]model.Subject, error)
	StudentsInGroup(ctx context.Context, groupID string) ([]model.User, error)
}

// gradeStream is the subscribe/write surface of the grade store.
type gradeStream interface {
	SubscribeRosterGrades(ctx context.Context, groupID, subjectID string, date time.Time) (RosterFeed, error)
	WriteGrade(ctx context.Context, studentID, subjectID string, date time.Time, value model.GradeValue) error
}

// RosterRow is one student line in the roster view. Pending marks an
// optimistic value whose write has not been confirmed yet.
type RosterRow struct {
	StudentID string           `json:"student_id"`
	Name      string           `json:"name"`
	Value     model.GradeValue `json:"value"`
	Pending   bool             `json:"pending,omitempty"`
}

type SessionEventKind string

const (
	EventGroups      SessionEventKind = "groups"
	EventSubjects    SessionEventKind = "subjects"
	EventRoster      SessionEventKind = "roster"
	EventWriteFailed SessionEventKind = "write_failed"
)

// SessionEvent is one push to the journal client. Roster events carry the
// full roster every time; the client renders, never merges.
type SessionEvent struct {
	Kind     SessionEventKind `json:"kind"`
	State    JournalState     `json:"state"`
	Groups   []model.Group    `json:"groups,omitempty"`
	Subjects []model.Subject  `json:"subjects,omitempty"`
	Roster   []RosterRow      `json:"roster,omitempty"`
	Date     string           `json:"date,omitempty"`

	// Set on write_failed only.
	StudentID string `json:"student_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// JournalSession is one teacher's drill-down over one connection. At most
// one roster feed is live at a time: every transition away from a roster
// view closes the old feed before anything else happens, and a generation
// counter discards emissions from feeds that were already superseded.
type JournalSession struct {
	teacherID string
	directory rosterDirectory
	stream    gradeStream
	log       zerolog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    JournalState
	groupID  string
	subject  string
	date     time.Time
	students []model.User
	values   map[string]model.GradeValue
	pending  map[string]model.GradeValue
	feed     RosterFeed
	gen      uint64
	closed   bool

	events chan SessionEvent
}

func NewJournalSession(ctx context.Context, teacherID string, directory rosterDirectory, stream gradeStream, log zerolog.Logger) *JournalSession {
	sessCtx, cancel := context.WithCancel(ctx)
	return &JournalSession{
		teacherID: teacherID,
		directory: directory,
		stream:    stream,
		log:       log.With().Str("component", "journal_session").Str("teacher_id", teacherID).Logger(),
		now:       time.Now,
		ctx:       sessCtx,
		cancel:    cancel,
		state:     StateIdle,
		events:    make(chan SessionEvent, 16),
	}
}

// Events is the push channel toward the client. Closed by Close.
func (s *JournalSession) Events() <-chan SessionEvent {
	return s.events
}

// Start loads the teacher's groups and enters the group list.
func (s *JournalSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.mu.Unlock()

	groups, err := s.directory.GroupsForTeacher(ctx, s.teacherID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateGroupList
	s.emitLocked(SessionEvent{Kind: EventGroups, State: s.state, Groups: groups})
	return nil
}

// SelectGroup narrows to one group and enters the subject list.
func (s *JournalSession) SelectGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateGroupList {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.mu.Unlock()

	subjects, err := s.directory.SubjectsForGroup(ctx, s.teacherID, groupID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = groupID
	s.state = StateSubjectList
	s.emitLocked(SessionEvent{Kind: EventSubjects, State: s.state, Subjects: subjects})
	return nil
}

// SelectSubject opens the live feed for today and, once the subscribe
// succeeds, enters the roster view. A failed subscribe leaves the session in
// the subject list so the intent can simply be retried.
func (s *JournalSession) SelectSubject(ctx context.Context, subjectID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateSubjectList {
		s.mu.Unlock()
		return ErrBadTransition
	}
	groupID := s.groupID
	s.mu.Unlock()

	students, err := s.directory.StudentsInGroup(ctx, groupID)
	if err != nil {
		return err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)

	s.mu.Lock()
	if s.closed || s.state != StateSubjectList {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.subject = subjectID
	s.students = students
	s.mu.Unlock()

	if err := s.openRoster(ctx, today); err != nil {
		s.mu.Lock()
		s.subject = ""
		s.students = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

// ChangeDate repoints the roster view at another day. The old feed is closed
// before the new one opens; there is never a moment with two live feeds. If
// the new subscribe fails the session falls back to the subject list rather
// than sitting in a roster view with no live feed behind it.
func (s *JournalSession) ChangeDate(ctx context.Context, raw string) error {
	date, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return ErrInvalidDate
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateRosterView {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.closeFeedLocked()
	s.mu.Unlock()

	if err := s.openRoster(ctx, date); err != nil {
		s.mu.Lock()
		s.clearRosterLocked()
		s.mu.Unlock()
		return err
	}
	return nil
}

// AssignGrade applies a grade optimistically and writes it in the
// background. The row shows the new value immediately with a pending mark;
// a failed write reverts it and reports the failure.
func (s *JournalSession) AssignGrade(ctx context.Context, studentID, raw string) error {
	value, ok := model.ParseGradeValue(raw)
	if !ok {
		return ErrInvalidGrade
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateRosterView {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if !s.hasStudentLocked(studentID) {
		s.mu.Unlock()
		return ErrNotFound
	}
	gen := s.gen
	subjectID, date := s.subject, s.date
	s.pending[studentID] = value
	s.emitRosterLocked()
	s.mu.Unlock()

	go func() {
		err := s.stream.WriteGrade(s.ctx, studentID, subjectID, date, value)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.gen != gen {
			return
		}
		delete(s.pending, studentID)
		if err != nil {
			s.log.Error().Err(err).Str("student_id", studentID).Msg("Grade write failed")
			s.emitLocked(SessionEvent{
				Kind:      EventWriteFailed,
				State:     s.state,
				StudentID: studentID,
				Reason:    "write failed",
			})
		} else {
			// Confirmed locally; the feed snapshot will agree shortly.
			s.values[studentID] = value
		}
		s.emitRosterLocked()
	}()
	return nil
}

// Back steps one level up the drill-down. Leaving the roster view closes its
// feed first.
func (s *JournalSession) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	switch s.state {
	case StateRosterView:
		s.closeFeedLocked()
		s.clearRosterLocked()
	case StateSubjectList:
		s.groupID = ""
		s.state = StateGroupList
	case StateGroupList:
		s.state = StateIdle
	default:
		return ErrBadTransition
	}
	return nil
}

// Close tears the session down: the live feed, the context, and the event
// channel. Idempotent.
func (s *JournalSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.closeFeedLocked()
	s.cancel()
	close(s.events)
}

// openRoster subscribes the roster feed for the given date and commits the
// roster view only once the subscribe has succeeded, so the session is never
// in RosterView without a live feed and allocated roster maps behind it. The
// generation captured before the subscribe guards against a teardown that
// happened while the subscribe call was in flight; a stale feed is closed
// unused.
func (s *JournalSession) openRoster(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	gen := s.gen
	groupID, subjectID := s.groupID, s.subject
	s.mu.Unlock()

	feed, err := s.stream.SubscribeRosterGrades(s.ctx, groupID, subjectID, date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		feed.Close()
		return nil
	}
	s.state = StateRosterView
	s.feed = feed
	s.date = date
	s.values = make(map[string]model.GradeValue)
	s.pending = make(map[string]model.GradeValue)
	s.mu.Unlock()

	go s.pumpFeed(feed, gen)
	return nil
}

// pumpFeed forwards feed snapshots into roster events until the feed closes
// or is superseded.
func (s *JournalSession) pumpFeed(feed RosterFeed, gen uint64) {
	for snap := range feed.Updates() {
		s.mu.Lock()
		if s.closed || s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.values = snap
		for id, v := range s.pending {
			if snap[id] == v {
				delete(s.pending, id)
			}
		}
		s.emitRosterLocked()
		s.mu.Unlock()
	}
}

// closeFeedLocked closes the live feed, if any, and bumps the generation so
// in-flight emissions and writes against the old view are discarded.
func (s *JournalSession) closeFeedLocked() {
	s.gen++
	if s.feed != nil {
		s.feed.Close()
		s.feed = nil
	}
}

// clearRosterLocked drops all roster view state and returns the session to
// the subject list. The feed must already be closed.
func (s *JournalSession) clearRosterLocked() {
	s.subject = ""
	s.students = nil
	s.values = nil
	s.pending = nil
	s.state = StateSubjectList
}

func (s *JournalSession) hasStudentLocked(studentID string) bool {
	for _, u := range s.students {
		if u.ID == studentID {
			return true
		}
	}
	return false
}

// emitRosterLocked pushes the current roster, students in name order with
// pending values overlaid.
func (s *JournalSession) emitRosterLocked() {
	rows := make([]RosterRow, 0, len(s.students))
	for _, u := range s.students {
		row := RosterRow{StudentID: u.ID, Name: u.Name, Value: s.values[u.ID]}
		if v, ok := s.pending[u.ID]; ok {
			row.Value = v
			row.Pending = true
		}
		rows = append(rows, row)
	}
	s.emitLocked(SessionEvent{
		Kind:   EventRoster,
		State:  s.state,
		Roster: rows,
		Date:   s.date.Format(model.DateLayout),
	})
}

// emitLocked delivers without blocking: a slow client loses the oldest
// buffered event, never stalls the session.
func (s *JournalSession) emitLocked(ev SessionEvent) {
	if s.closed {
		return
	}
	for {
		select {
		case s.events <- ev:
			return
		default:
			select {
			case <-s.events:
			default:
			}
		}
	}
}
