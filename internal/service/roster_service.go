package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/edusfera/journal-backend/internal/model"
	"github.com/edusfera/journal-backend/internal/repository"
)

// RosterService answers the catalog questions behind the journal drill-down:
// which groups a teacher sees, which subjects apply to a group, and who is
// in it. It is read-only; enrollment changes happen out of band.
type RosterService struct {
	userRepo    *repository.UserRepository
	groupRepo   *repository.GroupRepository
	subjectRepo *repository.SubjectRepository
}

func NewRosterService(
	userRepo *repository.UserRepository,
	groupRepo *repository.GroupRepository,
	subjectRepo *repository.SubjectRepository,
) *RosterService {
	return &RosterService{
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		subjectRepo: subjectRepo,
	}
}

// GroupsForTeacher lists the groups the teacher teaches at least one subject
// to. A teacher with no assignments gets an empty list.
func (s *RosterService) GroupsForTeacher(ctx context.Context, teacherID string) ([]model.Group, error) {
	return s.groupRepo.GroupsForTeacher(ctx, teacherID)
}

// SubjectsForGroup lists the subjects the teacher teaches to one group, in
// the group's configured order.
func (s *RosterService) SubjectsForGroup(ctx context.Context, teacherID, groupID string) ([]model.Subject, error) {
	return s.subjectRepo.SubjectsForGroup(ctx, teacherID, groupID)
}

// StudentsInGroup lists a group's students ordered by name.
func (s *RosterService) StudentsInGroup(ctx context.Context, groupID string) ([]model.User, error) {
	return s.userRepo.StudentsInGroup(ctx, groupID)
}

// SubjectsForStudent resolves the student's group and returns its subject
// list. A student without a group is a legal state and yields an empty list.
func (s *RosterService) SubjectsForStudent(ctx context.Context, studentID string) ([]model.Subject, error) {
	user, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.GroupID == "" {
		return nil, nil
	}
	return s.subjectRepo.SubjectsForStudentGroup(ctx, user.GroupID)
}
