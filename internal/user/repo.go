package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/model"
	"classtrack/internal/store"
)

const userColumns = `id, name, email, role, status, created_at, updated_at`

// Repository persists user identities in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Get returns a user by id.
func (r *Repository) Get(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFoundf("user not found with id of %s", id)
	}
	return u, err
}

// FindOrCreateByEmail resolves a user by email, provisioning a student
// identity on first sight. The upsert is a single statement keyed on the
// unique email column, so concurrent first-sight resolutions cannot create
// two rows. The display name is refreshed on every call.
func (r *Repository) FindOrCreateByEmail(ctx context.Context, email, name string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.User{}, apperr.BadRequestf("email required")
	}
	if name == "" {
		name = "User"
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, role, status)
		VALUES ($1, $2, $3, 'student', 'active')
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING `+userColumns,
		uuid.NewString(), name, email))
	return u, err
}

// Create inserts a user with an explicit role.
func (r *Repository) Create(ctx context.Context, name, email string, role model.Role) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, role, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING `+userColumns,
		uuid.NewString(), name, email, role))
	if store.IsUniqueViolation(err, "") {
		return model.User{}, apperr.Conflictf("user with email %s already exists", email)
	}
	return u, err
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Patch holds optional user fields for Update.
type Patch struct {
	Name   *string
	Role   *model.Role
	Status *model.Status
}

// Update patches name, role and status. Missing fields keep their value.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			status = COALESCE($4, status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, p.Role, p.Status))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFoundf("user not found with id of %s", id)
	}
	return u, err
}

// Delete removes a user permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.BadRequestf("user is still referenced by courses or attendance records")
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("user not found with id of %s", id)
	}
	return nil
}
