package arango

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	user := &auth.User{
		ID:        "k1",
		Username:  "octocat",
		GitHubID:  "583231",
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := toDocument(user)
	assert.Equal(t, "k1", doc.Key)
	assert.Equal(t, user, doc.toUser())
}

func TestDocumentOmitsEmptyProviderIDs(t *testing.T) {
	doc := toDocument(&auth.User{Username: "alice", PasswordHash: "hash"})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "google_id")
	assert.NotContains(t, fields, "facebook_id")
	assert.NotContains(t, fields, "github_id")
	assert.NotContains(t, fields, "_key")
	assert.Equal(t, "hash", fields["password_hash"])
}

func TestProviderIndexesAreUniqueAndSparse(t *testing.T) {
	byField := make(map[string]indexConfig)
	for _, idx := range userIndexes {
		byField[idx.Field] = idx
	}

	for _, field := range providerFields {
		idx, ok := byField[field]
		require.True(t, ok, "missing index for %s", field)
		assert.True(t, idx.Unique, field)
		assert.True(t, idx.Sparse, field)
	}

	assert.False(t, byField["username"].Unique)
}

func TestNewUserStore_RequiresURL(t *testing.T) {
	_, err := NewUserStore(context.Background(), Config{})
	assert.Error(t, err)
}
