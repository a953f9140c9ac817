// Package storage provides pluggable user persistence backends for CodeHub.
//
// # Overview
//
// Every backend implements auth.UserStore. The backend is chosen at startup
// from Config.Type:
//
//   - memory: in-process map, lost on restart (tests and local development)
//   - postgres: relational table via lib/pq (pkg/storage/postgres)
//   - arango: document collection via the ArangoDB driver (pkg/storage/arango)
//
// # Find-or-create
//
// External identity callbacks resolve a provider id to exactly one user.
// Each backend makes FindOrCreate atomic for a given (provider, id) pair so a
// repeated callback reuses the existing record.
//
// # Usage Example
//
//	store, err := storage.Open(ctx, storage.Config{
//		Type:        "postgres",
//		PostgresURL: "postgres://codehub@localhost/codehub?sslmode=disable",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
package storage
