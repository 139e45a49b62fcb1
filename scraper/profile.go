package scraper

import (
	"context"
	"strings"
	"sync"

	"tweet-indexer/config"
	"tweet-indexer/models"
	"tweet-indexer/renderer"
)

type profileEntry struct {
	author models.Author
	ok     bool
}

// ProfileEnricher fills author fields that only the profile page carries
// (join date, follower counts, location). Each username is fetched at most
// once per enricher, failures included.
type ProfileEnricher struct {
	Instance string
	Renderer renderer.Renderer

	mu    sync.Mutex
	cache map[string]profileEntry
}

func NewProfileEnricher(instance string, r renderer.Renderer) *ProfileEnricher {
	return &ProfileEnricher{
		Instance: strings.TrimRight(instance, "/"),
		Renderer: r,
		cache:    make(map[string]profileEntry),
	}
}

// Enrich returns post with its author merged with the profile page. Fields
// already set on the post win. A failed lookup leaves the post unchanged.
func (e *ProfileEnricher) Enrich(ctx context.Context, post models.Post) models.Post {
	username := post.Author.Username
	if username == "" {
		return post
	}

	entry := e.lookup(ctx, username)
	if !entry.ok {
		return post
	}
	post.Author = mergeAuthor(post.Author, entry.author)
	return post
}

func (e *ProfileEnricher) lookup(ctx context.Context, username string) profileEntry {
	key := strings.ToLower(username)

	e.mu.Lock()
	if entry, found := e.cache[key]; found {
		e.mu.Unlock()
		return entry
	}
	e.mu.Unlock()

	var entry profileEntry
	doc, err := e.Renderer.Render(ctx, e.Instance+"/"+username)
	if err != nil {
		config.WarnWithFields("profile lookup failed", config.Fields{
			"username": username,
			"error":    err.Error(),
		})
	} else {
		entry = profileEntry{author: parseProfile(doc, e.Instance), ok: true}
	}

	// a cancelled run should not poison the cache for the next one
	if ctx.Err() != nil {
		return entry
	}
	e.mu.Lock()
	e.cache[key] = entry
	e.mu.Unlock()
	return entry
}

func mergeAuthor(base, profile models.Author) models.Author {
	if base.ID == "" {
		base.ID = profile.ID
	}
	if base.DisplayName == "" {
		base.DisplayName = profile.DisplayName
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = profile.CreatedAt
	}
	if base.FollowersCount == 0 {
		base.FollowersCount = profile.FollowersCount
	}
	if base.FollowingCount == 0 {
		base.FollowingCount = profile.FollowingCount
	}
	if base.Location == "" {
		base.Location = profile.Location
	}
	if base.ProfileImageURL == "" {
		base.ProfileImageURL = profile.ProfileImageURL
	}
	return base
}
