package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edusfera/journal-backend/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	var groupID any
	if u.GroupID != "" {
		groupID = u.GroupID
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, group_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, groupID).Scan(&u.CreatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, COALESCE(group_id, ''), created_at
		 FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, COALESCE(group_id, ''), created_at
		 FROM users WHERE id = $1`, id))
}

// StudentsInGroup lists a group's students ordered by display name.
// An unknown group yields an empty slice, not an error.
func (r *UserRepository) StudentsInGroup(ctx context.Context, groupID string) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, password_hash, role, COALESCE(group_id, ''), created_at
		 FROM users WHERE group_id = $1 AND role = $2 ORDER BY name ASC`,
		groupID, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.GroupID, &u.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, u)
	}
	return students, rows.Err()
}

func (r *UserRepository) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.GroupID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
