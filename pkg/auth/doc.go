// Package auth provides local account management for CodeHub.
//
// # Overview
//
// This package owns the User entity and the Credential Verifier: registering
// local accounts, authenticating username/password pairs, and the two settings
// mutations (username change, password change). Persistence is delegated to a
// UserStore; the concrete backends live in pkg/storage.
//
// # Passwords
//
// Passwords are hashed with bcrypt. Accounts created through an external
// identity provider have no password hash and cannot log in locally until a
// password is set.
//
// # Usage Example
//
//	svc := auth.NewService(store, logger)
//
//	user, err := svc.Register(ctx, auth.RegisterRequest{
//		Username:        "alice",
//		Email:           "a@x.com",
//		Password:        "p1",
//		ConfirmPassword: "p1",
//	})
//
//	user, err = svc.Authenticate(ctx, "alice", "p1")
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//		// render the generic "invalid username or password" message
//	}
//
// # Related Packages
//
//   - pkg/storage: UserStore implementations (memory, postgres, arango)
//   - pkg/sso: external identity providers and find-or-create
//   - pkg/session: session establishment after authentication
package auth
