package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourguide/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var (
	ErrDuplicateEmail = errors.New("email already exists")
	ErrNotFound       = errors.New("user not found")
)

// DB is the subset of pgxpool.Pool used by repositories.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	EmailTakenByOther(ctx context.Context, email string, id int) (bool, error)
	UpdateProfile(ctx context.Context, id int, fullName, email, phoneNumber string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	List(ctx context.Context, filters model.UserListFilters) ([]model.User, int64, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, full_name, email, password, phone_number, role, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.PhoneNumber, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new user and fills in the generated id and timestamps
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (full_name, email, password, phone_number, role)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.FullName, user.Email, user.PasswordHash, user.PhoneNumber, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by exact email. Returns nil, nil when absent.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by ID. Returns nil, nil when absent.
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// EmailTakenByOther reports whether email belongs to a user other than id
func (r *userRepository) EmailTakenByOther(ctx context.Context, email string, id int) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, sql, email, id).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email ownership: %w", err)
	}
	return taken, nil
}

// UpdateProfile changes name, email and phone. Returns nil, nil when the user does not exist.
func (r *userRepository) UpdateProfile(ctx context.Context, id int, fullName, email, phoneNumber string) (*model.User, error) {
	sql := `UPDATE users
            SET full_name = $1, email = $2, phone_number = $3, updated_at = NOW()
            WHERE id = $4 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, sql, fullName, email, phoneNumber, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

// UpdatePassword stores a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	sql := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// sortColumns whitelists the columns the admin listing can be ordered by.
var sortColumns = map[string]struct{}{
	"full_name":    {},
	"role":         {},
	"phone_number": {},
	"email":        {},
	"created_at":   {},
}

// List returns one page of users plus the total number of matches.
// Filters are expected to be normalized by the caller; unknown sort columns
// fall back to full_name.
func (r *userRepository) List(ctx context.Context, filters model.UserListFilters) ([]model.User, int64, error) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")
	args := []any{}
	argCount := 1

	if filters.Role != "" {
		where.WriteString(fmt.Sprintf(" AND role = $%d", argCount))
		args = append(args, filters.Role)
		argCount++
	}
	if filters.Search != "" {
		where.WriteString(fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d OR phone_number ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	sort := filters.Sort
	if _, ok := sortColumns[sort]; !ok {
		sort = "full_name"
	}
	order := "ASC"
	if strings.EqualFold(filters.Order, "DESC") {
		order = "DESC"
	}

	var query strings.Builder
	query.WriteString(`SELECT ` + userColumns + ` FROM users`)
	query.WriteString(where.String())
	query.WriteString(fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d", sort, order, argCount, argCount+1))
	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)

	rows, err := r.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}
