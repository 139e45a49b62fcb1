package search

// TweetsMapping returns the create-index body for tweets_index.
// Keyword fields: user_id, username. Text: tweet_content, location, tagname.
func TweetsMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"user_id":           map[string]any{"type": "keyword"},
				"username":          map[string]any{"type": "keyword"},
				"profil_created_at": map[string]any{"type": "date"},
				"followersCount":    map[string]any{"type": "long"},
				"friendsCount":      map[string]any{"type": "long"},
				"location": map[string]any{
					"type": "text",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"tagname": map[string]any{
					"type": "text",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"profile_img":   map[string]any{"type": "keyword", "index": false},
				"created_at":    map[string]any{"type": "date"},
				"tweet_content": map[string]any{"type": "text"},
				"likes_count":   map[string]any{"type": "long"},
				"tweet_url":     map[string]any{"type": "keyword"},
			},
		},
	}
}
