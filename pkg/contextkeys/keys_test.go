package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestSessionToken(t *testing.T) {
	ctx := WithSessionToken(context.Background(), "tok")
	assert.Equal(t, "tok", GetSessionToken(ctx))
	assert.Empty(t, GetSessionToken(context.Background()))
}

func TestWithUser(t *testing.T) {
	type user struct{ name string }
	ctx := WithUser(context.Background(), &user{name: "alice"})

	got, ok := ctx.Value(UserKey).(*user)
	assert.True(t, ok)
	assert.Equal(t, "alice", got.name)
}
