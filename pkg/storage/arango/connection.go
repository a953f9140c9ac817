// Package arango stores CodeHub accounts as documents in ArangoDB.
package arango

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
)

// UsersCollection is the document collection holding accounts
const UsersCollection = "users"

// Config holds ArangoDB connection settings
type Config struct {
	URL      string
	User     string
	Password string
	Database string

	// ConnectTimeout bounds the retry loop that waits for the server
	ConnectTimeout time.Duration
}

func httpConfig(endpoint connection.Endpoint, user, password string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(user, password),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// connect returns a client once the server answers a version request
func connect(ctx context.Context, cfg Config) (arangodb.Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("arango URL is required")
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	client := arangodb.NewClient(connection.NewHttpConnection(httpConfig(endpoint, cfg.User, cfg.Password)))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = cfg.ConnectTimeout
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	err := backoff.Retry(func() error {
		_, err := client.Version(ctx)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to reach arango: %w", err)
	}

	return client, nil
}

// openDatabase returns the named database, creating it on first use
func openDatabase(ctx context.Context, client arangodb.Client, name string) (arangodb.Database, error) {
	dblist, err := client.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	exists := false
	for _, dbinfo := range dblist {
		if dbinfo.Name() == name {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		db, err := client.GetDatabase(ctx, name, &options)
		if err != nil {
			return nil, fmt.Errorf("failed to get database: %w", err)
		}
		return db, nil
	}

	db, err := client.CreateDatabase(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	return db, nil
}

// ensureUsers creates the users collection and its indexes
func ensureUsers(ctx context.Context, db arangodb.Database) error {
	exists, err := db.CollectionExists(ctx, UsersCollection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	var col arangodb.Collection
	if exists {
		var options arangodb.GetCollectionOptions
		if col, err = db.GetCollection(ctx, UsersCollection, &options); err != nil {
			return fmt.Errorf("failed to use collection: %w", err)
		}
	} else {
		if col, err = db.CreateCollectionV2(ctx, UsersCollection, nil); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	for _, idx := range userIndexes {
		unique, sparse := idx.Unique, idx.Sparse
		options := arangodb.CreatePersistentIndexOptions{
			Unique: &unique,
			Sparse: &sparse,
			Name:   idx.Name,
		}
		if _, _, err := col.EnsurePersistentIndex(ctx, []string{idx.Field}, &options); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}

	return nil
}

type indexConfig struct {
	Name   string
	Field  string
	Unique bool
	Sparse bool
}

// Provider ids are unique among documents that carry them
var userIndexes = []indexConfig{
	{Name: "idx_users_username", Field: "username"},
	{Name: "idx_users_google_id", Field: "google_id", Unique: true, Sparse: true},
	{Name: "idx_users_facebook_id", Field: "facebook_id", Unique: true, Sparse: true},
	{Name: "idx_users_github_id", Field: "github_id", Unique: true, Sparse: true},
}
