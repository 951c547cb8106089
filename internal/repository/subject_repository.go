package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edusfera/journal-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (id, name, teacher_id) VALUES ($1, $2, $3) RETURNING created_at`,
		s.ID, s.Name, s.TeacherID).Scan(&s.CreatedAt)
}

// AssignToGroup adds the subject to a group's ordered subject list.
func (r *SubjectRepository) AssignToGroup(ctx context.Context, subjectID, groupID string, position int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subject_groups (group_id, subject_id, position)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (group_id, subject_id) DO UPDATE SET position = EXCLUDED.position`,
		groupID, subjectID, position)
	return err
}

// SubjectsForGroup lists the subjects one teacher teaches to one group, in
// the group's subject order.
func (r *SubjectRepository) SubjectsForGroup(ctx context.Context, teacherID, groupID string) ([]model.Subject, error) {
	return r.querySubjects(ctx,
		`SELECT s.id, s.name, s.teacher_id, s.created_at
		 FROM subjects s
		 JOIN subject_groups sg ON sg.subject_id = s.id
		 WHERE sg.group_id = $1 AND s.teacher_id = $2
		 ORDER BY sg.position ASC`, groupID, teacherID)
}

// SubjectsForStudentGroup lists every subject a group is evaluated in,
// regardless of teacher, in the group's subject order. Drives the
// student-facing summary.
func (r *SubjectRepository) SubjectsForStudentGroup(ctx context.Context, groupID string) ([]model.Subject, error) {
	return r.querySubjects(ctx,
		`SELECT s.id, s.name, s.teacher_id, s.created_at
		 FROM subjects s
		 JOIN subject_groups sg ON sg.subject_id = s.id
		 WHERE sg.group_id = $1
		 ORDER BY sg.position ASC`, groupID)
}

func (r *SubjectRepository) querySubjects(ctx context.Context, sql string, args ...any) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.TeacherID, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
