package scraper

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"tweet-indexer/config"
	"tweet-indexer/feeder"
	"tweet-indexer/models"
	"tweet-indexer/parser"
)

// RSSScraper reads the search RSS feed of a Nitter instance. The feed is a
// single page, fetched when the consumer starts ranging.
type RSSScraper struct {
	Instance string
	Fetcher  *feeder.Fetcher
	// Profiles is optional.
	Profiles *ProfileEnricher
}

func NewRSSScraper(instance string, fetcher *feeder.Fetcher, profiles *ProfileEnricher) *RSSScraper {
	return &RSSScraper{Instance: instance, Fetcher: fetcher, Profiles: profiles}
}

func (s *RSSScraper) Search(ctx context.Context, location string) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		items, err := s.Fetcher.FetchFeed(ctx, searchURL(s.Instance, "/search/rss", location), 0)
		if err != nil {
			yield(models.Post{}, fmt.Errorf("search feed: %w", err))
			return
		}

		for _, item := range items {
			post, ok := postFromFeedItem(item)
			if !ok {
				config.Logger.Debugf("skipping feed item without status link: %s", item.Link)
				continue
			}
			if s.Profiles != nil {
				post = s.Profiles.Enrich(ctx, post)
			}
			if !yield(post, nil) {
				return
			}
		}
	}
}

func postFromFeedItem(item feeder.FeedItem) (models.Post, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	username, id, ok := statusRef(link)
	if !ok {
		return models.Post{}, false
	}

	content := strings.TrimSpace(item.Title)
	if item.Description != "" {
		text, err := parser.PlainText(item.Description)
		if err != nil {
			config.Logger.Warnf("feed item %s: description not parsed, using title: %v", id, err)
		} else if text != "" {
			content = text
		}
	}

	return models.Post{
		ID:        id,
		CreatedAt: item.PublishedAt.UTC(),
		Content:   content,
		URL:       canonicalURL(username, id),
		// dc:creator only carries the handle, the display name comes from the profile
		Author: models.Author{Username: username},
	}, true
}
