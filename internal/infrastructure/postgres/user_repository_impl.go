package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

const userColumns = `id, name, email, photo, role, active, password_hash, password_changed_at,
	password_reset_token_hash, password_reset_expires_at, created_at, updated_at, version`

var userFields = fieldSet{
	"id":                {name: "id", kind: kindText},
	"name":              {name: "name", kind: kindText},
	"email":             {name: "email", kind: kindText},
	"photo":             {name: "photo", kind: kindText},
	"role":              {name: "role", kind: kindText},
	"active":            {name: "active", kind: kindBool},
	"passwordChangedAt": {name: "password_changed_at", kind: kindTime},
	"createdAt":         {name: "created_at", kind: kindTime},
	"updatedAt":         {name: "updated_at", kind: kindTime},
	"__v":               {name: "version", kind: kindInt},
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &role, &u.Active, &u.PasswordHash,
		&u.PasswordChangedAt, &u.PasswordResetTokenHash, &u.PasswordResetExpiresAt,
		&u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.Active, u.PasswordHash,
		u.PasswordChangedAt, u.PasswordResetTokenHash, u.PasswordResetExpiresAt,
		u.CreatedAt, u.UpdatedAt, u.Version)
	return mapWriteErr(err)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		entity.NormalizeEmail(email)))
}

func (r *UserRepository) GetByResetTokenHash(ctx context.Context, digest string, now time.Time) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $2
	`, digest, now))
}

// findSQL renders q into a SELECT over users.
func findSQL(q query.Query) (string, []any, error) {
	where, args, err := userFields.where(q.Conditions(), 1)
	if err != nil {
		return "", nil, err
	}
	order, err := userFields.orderBy(q.Sort())
	if err != nil {
		return "", nil, err
	}
	sql := `SELECT ` + userColumns + ` FROM users` + where + order
	if q.Limit() > 0 {
		n := len(args)
		sql += " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
		args = append(args, q.Limit(), q.Skip())
	}
	return sql, args, nil
}

func (r *UserRepository) Find(ctx context.Context, q query.Query) ([]*entity.User, error) {
	sql, args, err := findSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context, conds []query.Condition) (int64, error) {
	where, args, err := userFields.where(conds, 1)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *UserRepository) Replace(ctx context.Context, u *entity.User) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, photo = $3, role = $4, active = $5, password_hash = $6,
			password_changed_at = $7, password_reset_token_hash = $8, password_reset_expires_at = $9,
			updated_at = $10, version = version + 1
		WHERE id = $11 AND version = $12
	`, u.Name, u.Email, u.Photo, string(u.Role), u.Active, u.PasswordHash,
		u.PasswordChangedAt, u.PasswordResetTokenHash, u.PasswordResetExpiresAt,
		u.UpdatedAt, u.ID, u.Version)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, u.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	u.Version++
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
