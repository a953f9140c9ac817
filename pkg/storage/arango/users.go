package arango

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/google/uuid"
	"github.com/platinummonkey/codehub/pkg/auth"
)

// userDocument is the stored shape of an account. Provider ids are omitted
// when empty so the sparse unique indexes skip them.
type userDocument struct {
	Key          string    `json:"_key,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	GoogleID     string    `json:"google_id,omitempty"`
	FacebookID   string    `json:"facebook_id,omitempty"`
	GitHubID     string    `json:"github_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDocument(u *auth.User) userDocument {
	return userDocument{
		Key:          u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		FacebookID:   u.FacebookID,
		GitHubID:     u.GitHubID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toUser() *auth.User {
	return &auth.User{
		ID:           d.Key,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		FacebookID:   d.FacebookID,
		GitHubID:     d.GitHubID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

var providerFields = map[auth.Provider]string{
	auth.ProviderGoogle:   "google_id",
	auth.ProviderFacebook: "facebook_id",
	auth.ProviderGitHub:   "github_id",
}

// UserStore implements auth.UserStore on ArangoDB
type UserStore struct {
	client arangodb.Client
	db     arangodb.Database
}

// NewUserStore connects, creating the database and collection when missing
func NewUserStore(ctx context.Context, cfg Config) (*UserStore, error) {
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	name := cfg.Database
	if name == "" {
		name = "codehub"
	}

	db, err := openDatabase(ctx, client, name)
	if err != nil {
		return nil, err
	}

	if err := ensureUsers(ctx, db); err != nil {
		return nil, err
	}

	return &UserStore{client: client, db: db}, nil
}

// Ping asks the server for its version
func (s *UserStore) Ping(ctx context.Context) error {
	if _, err := s.client.Version(ctx); err != nil {
		return fmt.Errorf("arango unreachable: %w", err)
	}
	return nil
}

// queryOne runs query and decodes the first result. ok is false when the
// query returned nothing.
func (s *UserStore) queryOne(ctx context.Context, query string, bindVars map[string]interface{}, out interface{}) (bool, error) {
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return false, nil
	}
	if _, err := cursor.ReadDocument(ctx, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserStore) findBy(ctx context.Context, field, value string) (*auth.User, error) {
	query := `
		FOR u IN users
		FILTER u.@field == @value
		SORT u.created_at ASC
		LIMIT 1
		RETURN u
	`
	var doc userDocument
	ok, err := s.queryOne(ctx, query, map[string]interface{}{"field": field, "value": value}, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return doc.toUser(), nil
}

// GetByID returns the user with the given document key
func (s *UserStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findBy(ctx, "_key", id)
}

// GetByUsername returns the oldest user with the given username
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.findBy(ctx, "username", username)
}

// GetByProviderID returns the user linked to externalID at provider
func (s *UserStore) GetByProviderID(ctx context.Context, provider auth.Provider, externalID string) (*auth.User, error) {
	field, ok := providerFields[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if externalID == "" {
		return nil, auth.ErrUserNotFound
	}
	return s.findBy(ctx, field, externalID)
}

// Create inserts a new user and assigns its id
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC()
	doc := toDocument(user)
	doc.Key = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	var stored userDocument
	if _, err := s.queryOne(ctx, `INSERT @doc INTO users RETURN NEW`, map[string]interface{}{"doc": doc}, &stored); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.Key
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Update replaces the stored document, keeping its creation time
func (s *UserStore) Update(ctx context.Context, user *auth.User) error {
	doc := toDocument(user)
	doc.Key = ""
	doc.UpdatedAt = time.Now().UTC()

	query := `
		FOR u IN users
		FILTER u._key == @key
		REPLACE u WITH MERGE(@doc, { created_at: u.created_at }) IN users
		RETURN NEW
	`
	var stored userDocument
	ok, err := s.queryOne(ctx, query, map[string]interface{}{"key": user.ID, "doc": doc}, &stored)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !ok {
		return auth.ErrUserNotFound
	}

	user.UpdatedAt = stored.UpdatedAt
	return nil
}

type upsertResult struct {
	User    userDocument `json:"user"`
	Created bool         `json:"created"`
}

// FindOrCreate returns the user linked to externalID, creating it if absent
func (s *UserStore) FindOrCreate(ctx context.Context, provider auth.Provider, externalID, username string) (*auth.User, bool, error) {
	field, ok := providerFields[provider]
	if !ok {
		return nil, false, fmt.Errorf("unsupported provider: %s", provider)
	}

	now := time.Now().UTC()
	doc := userDocument{
		Key:       uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fresh := &auth.User{}
	fresh.SetExternalID(provider, externalID)
	linked := toDocument(fresh)
	doc.GoogleID, doc.FacebookID, doc.GitHubID = linked.GoogleID, linked.FacebookID, linked.GitHubID

	// field comes from providerFields, never from input
	query := fmt.Sprintf(`
		UPSERT { %[1]s: @externalID }
		INSERT @doc
		UPDATE {}
		IN users
		RETURN { user: NEW, created: OLD == null }
	`, field)

	var result upsertResult
	_, err := s.queryOne(ctx, query, map[string]interface{}{"externalID": externalID, "doc": doc}, &result)
	if err != nil {
		// A concurrent callback may have won the unique index race
		if existing, lookupErr := s.GetByProviderID(ctx, provider, externalID); lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return result.User.toUser(), result.Created, nil
}

// Close is a no-op; the HTTP connection holds no persistent resources
func (s *UserStore) Close() error {
	return nil
}
