package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/platinummonkey/codehub/pkg/auth"
)

const userColumns = `id, username, email, password_hash, google_id, facebook_id, github_id, created_at, updated_at`

// providerColumns maps each provider to its id column. The set is closed,
// so the column names are safe to interpolate into queries.
var providerColumns = map[auth.Provider]string{
	auth.ProviderGoogle:   "google_id",
	auth.ProviderFacebook: "facebook_id",
	auth.ProviderGitHub:   "github_id",
}

// UserStore implements auth.UserStore on PostgreSQL
type UserStore struct {
	db *sql.DB
}

// NewUserStore connects to PostgreSQL and ensures the schema exists
func NewUserStore(ctx context.Context, config ConnectionConfig) (*UserStore, error) {
	db, err := Connect(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &UserStore{db: db}, nil
}

// NewUserStoreWithDB wraps an existing connection pool
func NewUserStoreWithDB(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetByID returns the user with the given id
func (s *UserStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByUsername returns the oldest user with the given username
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE username = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, username)
	return scanUser(row)
}

// GetByProviderID returns the user linked to externalID at provider
func (s *UserStore) GetByProviderID(ctx context.Context, provider auth.Provider, externalID string) (*auth.User, error) {
	column, ok := providerColumns[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE `+column+` = $1
	`, externalID)
	return scanUser(row)
}

// Create inserts a new user and assigns its id
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	id := uuid.NewString()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, google_id, facebook_id, github_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`, id, user.Username, user.Email, user.PasswordHash,
		nullString(user.GoogleID), nullString(user.FacebookID), nullString(user.GitHubID),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id
	return nil
}

// Update overwrites every mutable field of an existing user
func (s *UserStore) Update(ctx context.Context, user *auth.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3,
			google_id = $4, facebook_id = $5, github_id = $6, updated_at = NOW()
		WHERE id = $7
	`, user.Username, user.Email, user.PasswordHash,
		nullString(user.GoogleID), nullString(user.FacebookID), nullString(user.GitHubID),
		user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// FindOrCreate returns the user linked to externalID, creating it if absent.
// The insert relies on the partial unique index so concurrent callbacks for
// the same id converge on one row.
func (s *UserStore) FindOrCreate(ctx context.Context, provider auth.Provider, externalID, username string) (*auth.User, bool, error) {
	column, ok := providerColumns[provider]
	if !ok {
		return nil, false, fmt.Errorf("unsupported provider: %s", provider)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, `+column+`, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (`+column+`) WHERE `+column+` IS NOT NULL DO NOTHING
		RETURNING `+userColumns,
		uuid.NewString(), username, externalID)

	user, err := scanUser(row)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	// Conflict: the identity is already linked
	user, err = s.GetByProviderID(ctx, provider, externalID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load linked user: %w", err)
	}
	return user, false, nil
}

// DB returns the underlying connection pool
func (s *UserStore) DB() *sql.DB {
	return s.db
}

// Close closes the connection pool
func (s *UserStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		user                       auth.User
		googleID, facebookID, ghID sql.NullString
	)

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&googleID, &facebookID, &ghID, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.GoogleID = googleID.String
	user.FacebookID = facebookID.String
	user.GitHubID = ghID.String
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
