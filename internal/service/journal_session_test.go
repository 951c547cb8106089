package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusfera/journal-backend/internal/model"
)

type fakeDirectory struct {
	groups   []model.Group
	subjects []model.Subject
	students []model.User

	groupsErr   error
	studentsErr error
}

func (d *fakeDirectory) GroupsForTeacher(ctx context.Context, teacherID string) ([]model.Group, error) {
	return d.groups, d.groupsErr
}

func (d *fakeDirectory) SubjectsForGroup(ctx context.Context, teacherID, groupID string) ([]model.Subject, error) {
	return d.subjects, nil
}

func (d *fakeDirectory) StudentsInGroup(ctx context.Context, groupID string) ([]model.User, error) {
	return d.students, d.studentsErr
}

// fakeFeed keeps its channel open after Close so tests can prove that
// emissions from a superseded feed are discarded by the generation guard.
type fakeFeed struct {
	ch     chan map[string]model.GradeValue
	mu     sync.Mutex
	closed bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{ch: make(chan map[string]model.GradeValue, 4)}
}

func (f *fakeFeed) Updates() <-chan map[string]model.GradeValue { return f.ch }

func (f *fakeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeFeed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type writeCall struct {
	studentID string
	value     model.GradeValue
}

type fakeStream struct {
	mu           sync.Mutex
	feeds        []*fakeFeed
	writes       []writeCall
	writeErr     error
	subscribeErr error
}

func (s *fakeStream) SubscribeRosterGrades(ctx context.Context, groupID, subjectID string, date time.Time) (RosterFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	feed := newFakeFeed()
	s.feeds = append(s.feeds, feed)
	return feed, nil
}

func (s *fakeStream) setSubscribeErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribeErr = err
}

func (s *fakeStream) WriteGrade(ctx context.Context, studentID, subjectID string, date time.Time, value model.GradeValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, writeCall{studentID: studentID, value: value})
	return s.writeErr
}

func (s *fakeStream) feed(i int) *fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[i]
}

func (s *fakeStream) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

var errStoreDown = errors.New("store down")

func newTestSession(t *testing.T) (*JournalSession, *fakeStream) {
	t.Helper()
	sess, stream, _ := newTestSessionWithDirectory(t)
	return sess, stream
}

func newTestSessionWithDirectory(t *testing.T) (*JournalSession, *fakeStream, *fakeDirectory) {
	t.Helper()
	dir := &fakeDirectory{
		groups:   []model.Group{{ID: "g1", Name: "10-A"}},
		subjects: []model.Subject{{ID: "sub1", Name: "Math", TeacherID: "t1"}},
		students: []model.User{
			{ID: "s1", Name: "Anna", Role: model.RoleStudent, GroupID: "g1"},
			{ID: "s2", Name: "Boris", Role: model.RoleStudent, GroupID: "g1"},
		},
	}
	stream := &fakeStream{}
	sess := NewJournalSession(context.Background(), "t1", dir, stream, zerolog.Nop())
	t.Cleanup(sess.Close)
	return sess, stream, dir
}

func nextEvent(t *testing.T, sess *JournalSession) SessionEvent {
	t.Helper()
	select {
	case ev, ok := <-sess.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session event")
		return SessionEvent{}
	}
}

func assertNoEvent(t *testing.T, sess *JournalSession) {
	t.Helper()
	select {
	case ev := <-sess.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func drillToRoster(t *testing.T, sess *JournalSession, stream *fakeStream) *fakeFeed {
	t.Helper()
	require.NoError(t, sess.Start(context.Background()))
	assert.Equal(t, EventGroups, nextEvent(t, sess).Kind)

	require.NoError(t, sess.SelectGroup(context.Background(), "g1"))
	assert.Equal(t, EventSubjects, nextEvent(t, sess).Kind)

	require.NoError(t, sess.SelectSubject(context.Background(), "sub1"))
	return stream.feed(0)
}

func TestJournalSessionDrillDown(t *testing.T) {
	sess, stream := newTestSession(t)

	require.NoError(t, sess.Start(context.Background()))
	ev := nextEvent(t, sess)
	assert.Equal(t, EventGroups, ev.Kind)
	assert.Equal(t, StateGroupList, ev.State)
	require.Len(t, ev.Groups, 1)
	assert.Equal(t, "g1", ev.Groups[0].ID)

	require.NoError(t, sess.SelectGroup(context.Background(), "g1"))
	ev = nextEvent(t, sess)
	assert.Equal(t, EventSubjects, ev.Kind)
	assert.Equal(t, StateSubjectList, ev.State)
	require.Len(t, ev.Subjects, 1)

	require.NoError(t, sess.SelectSubject(context.Background(), "sub1"))
	feed := stream.feed(0)

	feed.ch <- map[string]model.GradeValue{"s1": model.GradeExcellent}
	ev = nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, StateRosterView, ev.State)
	require.Len(t, ev.Roster, 2)
	assert.Equal(t, model.GradeExcellent, ev.Roster[0].Value)
	assert.Equal(t, model.GradeValue(""), ev.Roster[1].Value)
}

func TestJournalSessionRejectsOutOfOrderIntents(t *testing.T) {
	sess, _ := newTestSession(t)

	assert.ErrorIs(t, sess.SelectGroup(context.Background(), "g1"), ErrBadTransition)
	assert.ErrorIs(t, sess.SelectSubject(context.Background(), "sub1"), ErrBadTransition)
	assert.ErrorIs(t, sess.ChangeDate(context.Background(), "2026-02-03"), ErrBadTransition)
	assert.ErrorIs(t, sess.Back(context.Background()), ErrBadTransition)

	require.NoError(t, sess.Start(context.Background()))
	assert.ErrorIs(t, sess.Start(context.Background()), ErrBadTransition)
}

func TestJournalSessionChangeDateClosesOldFeed(t *testing.T) {
	sess, stream := newTestSession(t)
	feed1 := drillToRoster(t, sess, stream)

	feed1.ch <- map[string]model.GradeValue{}
	assert.Equal(t, EventRoster, nextEvent(t, sess).Kind)

	require.NoError(t, sess.ChangeDate(context.Background(), "2026-02-03"))
	assert.True(t, feed1.isClosed())

	feed2 := stream.feed(1)
	feed2.ch <- map[string]model.GradeValue{"s2": model.GradeGood}
	ev := nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, "2026-02-03", ev.Date)
	assert.Equal(t, model.GradeGood, ev.Roster[1].Value)
}

func TestJournalSessionDiscardsStaleFeedEmissions(t *testing.T) {
	sess, stream := newTestSession(t)
	feed1 := drillToRoster(t, sess, stream)

	require.NoError(t, sess.ChangeDate(context.Background(), "2026-02-03"))

	// The superseded feed's channel is still open; an emission from it
	// must not surface.
	feed1.ch <- map[string]model.GradeValue{"s1": model.GradePoor}
	assertNoEvent(t, sess)

	feed2 := stream.feed(1)
	feed2.ch <- map[string]model.GradeValue{"s1": model.GradeExcellent}
	ev := nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeExcellent, ev.Roster[0].Value)
}

func TestJournalSessionRejectsInvalidDate(t *testing.T) {
	sess, stream := newTestSession(t)
	drillToRoster(t, sess, stream)

	assert.ErrorIs(t, sess.ChangeDate(context.Background(), "03.02.2026"), ErrInvalidDate)
	assert.ErrorIs(t, sess.ChangeDate(context.Background(), ""), ErrInvalidDate)
}

func TestJournalSessionAssignGradeOptimistic(t *testing.T) {
	sess, stream := newTestSession(t)
	feed := drillToRoster(t, sess, stream)

	feed.ch <- map[string]model.GradeValue{}
	nextEvent(t, sess)

	require.NoError(t, sess.AssignGrade(context.Background(), "s2", "4"))

	ev := nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeGood, ev.Roster[1].Value)
	assert.True(t, ev.Roster[1].Pending)

	// Write confirmation clears the pending mark and keeps the value.
	ev = nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeGood, ev.Roster[1].Value)
	assert.False(t, ev.Roster[1].Pending)
	assert.Equal(t, 1, stream.writeCount())
}

func TestJournalSessionAssignGradeRevertsOnFailure(t *testing.T) {
	sess, stream := newTestSession(t)
	feed := drillToRoster(t, sess, stream)

	feed.ch <- map[string]model.GradeValue{"s2": model.GradeFair}
	nextEvent(t, sess)

	stream.mu.Lock()
	stream.writeErr = context.DeadlineExceeded
	stream.mu.Unlock()

	require.NoError(t, sess.AssignGrade(context.Background(), "s2", "5"))

	ev := nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeExcellent, ev.Roster[1].Value)
	assert.True(t, ev.Roster[1].Pending)

	ev = nextEvent(t, sess)
	assert.Equal(t, EventWriteFailed, ev.Kind)
	assert.Equal(t, "s2", ev.StudentID)

	ev = nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeFair, ev.Roster[1].Value)
	assert.False(t, ev.Roster[1].Pending)
}

func TestJournalSessionAssignGradeRejectsBadInput(t *testing.T) {
	sess, stream := newTestSession(t)
	feed := drillToRoster(t, sess, stream)

	feed.ch <- map[string]model.GradeValue{}
	nextEvent(t, sess)

	assert.ErrorIs(t, sess.AssignGrade(context.Background(), "s1", "7"), ErrInvalidGrade)
	assert.ErrorIs(t, sess.AssignGrade(context.Background(), "stranger", "5"), ErrNotFound)
	assert.Equal(t, 0, stream.writeCount())
	assertNoEvent(t, sess)
}

func TestJournalSessionBackClosesFeed(t *testing.T) {
	sess, stream := newTestSession(t)
	feed := drillToRoster(t, sess, stream)

	require.NoError(t, sess.Back(context.Background()))
	assert.True(t, feed.isClosed())

	// Stale emission after Back must not surface.
	feed.ch <- map[string]model.GradeValue{"s1": model.GradePoor}
	assertNoEvent(t, sess)

	// Back walks all the way out, then rejects further steps.
	require.NoError(t, sess.Back(context.Background()))
	require.NoError(t, sess.Back(context.Background()))
	assert.ErrorIs(t, sess.Back(context.Background()), ErrBadTransition)
}

func TestJournalSessionSelectSubjectUsesSessionClock(t *testing.T) {
	sess, stream := newTestSession(t)
	sess.now = func() time.Time {
		return time.Date(2026, 2, 2, 15, 4, 5, 0, time.UTC)
	}

	require.NoError(t, sess.Start(context.Background()))
	nextEvent(t, sess)
	require.NoError(t, sess.SelectGroup(context.Background(), "g1"))
	nextEvent(t, sess)
	require.NoError(t, sess.SelectSubject(context.Background(), "sub1"))

	feed := stream.feed(0)
	feed.ch <- map[string]model.GradeValue{}
	assert.Equal(t, "2026-02-02", nextEvent(t, sess).Date)
}

func TestJournalSessionStartRetriesAfterDirectoryError(t *testing.T) {
	sess, _, dir := newTestSessionWithDirectory(t)

	dir.groupsErr = errStoreDown
	assert.ErrorIs(t, sess.Start(context.Background()), errStoreDown)
	assertNoEvent(t, sess)

	// The session stayed idle, so the same intent succeeds once the
	// directory is back.
	dir.groupsErr = nil
	require.NoError(t, sess.Start(context.Background()))
	assert.Equal(t, EventGroups, nextEvent(t, sess).Kind)
}

func TestJournalSessionSelectSubjectKeepsSubjectListOnSubscribeFailure(t *testing.T) {
	sess, stream, dir := newTestSessionWithDirectory(t)

	require.NoError(t, sess.Start(context.Background()))
	nextEvent(t, sess)
	require.NoError(t, sess.SelectGroup(context.Background(), "g1"))
	nextEvent(t, sess)

	dir.studentsErr = errStoreDown
	assert.ErrorIs(t, sess.SelectSubject(context.Background(), "sub1"), errStoreDown)
	dir.studentsErr = nil

	stream.setSubscribeErr(errStoreDown)
	assert.ErrorIs(t, sess.SelectSubject(context.Background(), "sub1"), errStoreDown)

	// No roster view was entered: roster intents are rejected rather than
	// served from half-built state.
	assert.ErrorIs(t, sess.AssignGrade(context.Background(), "s1", "5"), ErrBadTransition)
	assert.ErrorIs(t, sess.ChangeDate(context.Background(), "2026-02-03"), ErrBadTransition)
	assertNoEvent(t, sess)

	stream.setSubscribeErr(nil)
	require.NoError(t, sess.SelectSubject(context.Background(), "sub1"))
	feed := stream.feed(0)
	feed.ch <- map[string]model.GradeValue{"s1": model.GradeGood}
	ev := nextEvent(t, sess)
	assert.Equal(t, EventRoster, ev.Kind)
	assert.Equal(t, model.GradeGood, ev.Roster[0].Value)
}

func TestJournalSessionChangeDateFallsBackOnSubscribeFailure(t *testing.T) {
	sess, stream := newTestSession(t)
	feed1 := drillToRoster(t, sess, stream)

	stream.setSubscribeErr(errStoreDown)
	assert.ErrorIs(t, sess.ChangeDate(context.Background(), "2026-02-03"), errStoreDown)

	// The old feed is closed, its late emissions are discarded, and the
	// session is back in the subject list instead of a dead roster view.
	assert.True(t, feed1.isClosed())
	feed1.ch <- map[string]model.GradeValue{"s1": model.GradePoor}
	assertNoEvent(t, sess)
	assert.ErrorIs(t, sess.AssignGrade(context.Background(), "s1", "5"), ErrBadTransition)

	stream.setSubscribeErr(nil)
	require.NoError(t, sess.SelectSubject(context.Background(), "sub1"))
	feed2 := stream.feed(1)
	feed2.ch <- map[string]model.GradeValue{}
	assert.Equal(t, EventRoster, nextEvent(t, sess).Kind)
}

func TestJournalSessionCloseIsIdempotent(t *testing.T) {
	sess, stream := newTestSession(t)
	feed := drillToRoster(t, sess, stream)

	sess.Close()
	sess.Close()
	assert.True(t, feed.isClosed())

	_, ok := <-sess.Events()
	assert.False(t, ok)

	assert.ErrorIs(t, sess.Start(context.Background()), ErrSessionClosed)
	assert.ErrorIs(t, sess.AssignGrade(context.Background(), "s1", "5"), ErrSessionClosed)
}
