package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edusfera/journal-backend/internal/model"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO groups (id, name) VALUES ($1, $2) RETURNING created_at`,
		g.ID, g.Name).Scan(&g.CreatedAt)
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GroupsForTeacher returns the distinct groups the teacher's subjects are
// taught to. A subject assigned to no group is silently invisible here;
// that is a visibility filter, not an error.
func (r *GroupRepository) GroupsForTeacher(ctx context.Context, teacherID string) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT g.id, g.name, g.created_at
		 FROM groups g
		 JOIN subject_groups sg ON sg.group_id = g.id
		 JOIN subjects s ON s.id = sg.subject_id
		 WHERE s.teacher_id = $1
		 ORDER BY g.name ASC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
