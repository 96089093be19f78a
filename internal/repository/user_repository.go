package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-api/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	// FindByIDs returns the users that exist, keyed by id
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	// List returns a page of users, newest first, and the total count
	List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a Postgres backed UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, phone, address, google_id,
	gst_number, bank_details, pending_admin, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user        domain.User
		address     []byte
		googleID    sql.NullString
		bankDetails []byte
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Phone,
		&address,
		&googleID,
		&user.GSTNumber,
		&bankDetails,
		&user.PendingAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.GoogleID = googleID.String
	if user.Address, err = scanJSONColumn[domain.Address](address); err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	if user.BankDetails, err = scanJSONColumn[domain.BankDetails](bankDetails); err != nil {
		return nil, fmt.Errorf("failed to decode bank details: %w", err)
	}

	return &user, nil
}

// Create inserts a new user using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	address, err := jsonColumn(user.Address)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	bankDetails, err := jsonColumn(user.BankDetails)
	if err != nil {
		return fmt.Errorf("failed to encode bank details: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		address,
		nullableString(user.GoogleID),
		user.GSTNumber,
		bankDetails,
		user.PendingAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "id = $1", id)
}

// FindByGoogleID retrieves a user linked to a Google account
func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "google_id = $1", googleID)
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User)

	ids = validIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *userRepository) List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// Update overwrites every mutable column of the user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if !validID(user.ID) {
		return ErrUserNotFound
	}

	address, err := jsonColumn(user.Address)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	bankDetails, err := jsonColumn(user.BankDetails)
	if err != nil {
		return fmt.Errorf("failed to encode bank details: %w", err)
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, role = $5, phone = $6, address = $7,
		    google_id = $8, gst_number = $9, bank_details = $10, pending_admin = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		address,
		nullableString(user.GoogleID),
		user.GSTNumber,
		bankDetails,
		user.PendingAdmin,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return requireAffected(result, ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrUserNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireAffected(result, ErrUserNotFound)
}
