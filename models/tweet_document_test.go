package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-indexer/models"
)

func TestTweetDocumentOmitsUnknownProfileDate(t *testing.T) {
	doc := models.NewTweetDocument(models.Post{
		ID:        "1001",
		CreatedAt: time.Date(2023, 10, 3, 18, 4, 0, 0, time.UTC),
		Content:   "Bonjour",
		Author:    models.Author{Username: "alice"},
	})

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "profil_created_at")
	assert.Equal(t, "2023-10-03T18:04:00Z", fields["created_at"])
	assert.Equal(t, "alice", fields["username"])
}

func TestTweetDocumentKeepsKnownProfileDate(t *testing.T) {
	joined := time.Date(2009, 3, 21, 12, 50, 0, 0, time.FixedZone("CET", 3600))
	doc := models.NewTweetDocument(models.Post{
		ID:     "1001",
		Author: models.Author{Username: "alice", CreatedAt: joined, FollowingCount: 413},
	})

	require.NotNil(t, doc.ProfileCreated)
	assert.Equal(t, time.UTC, doc.ProfileCreated.Location())
	assert.True(t, joined.Equal(*doc.ProfileCreated))
	assert.Equal(t, 413, doc.FriendsCount)
}
