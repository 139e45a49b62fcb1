package scraper

import (
	"context"
	"fmt"
	"iter"

	"tweet-indexer/config"
	"tweet-indexer/models"
	"tweet-indexer/renderer"
)

// HTMLScraper pages through the search timeline of a Nitter instance. A page
// is only requested once the consumer has drained the previous one.
type HTMLScraper struct {
	Instance string
	Renderer renderer.Renderer
	// Profiles is optional.
	Profiles *ProfileEnricher
}

func NewHTMLScraper(instance string, r renderer.Renderer, profiles *ProfileEnricher) *HTMLScraper {
	return &HTMLScraper{Instance: instance, Renderer: r, Profiles: profiles}
}

func (s *HTMLScraper) Search(ctx context.Context, location string) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		pageURL := searchURL(s.Instance, "/search", location)
		visited := make(map[string]bool)

		for page := 1; pageURL != ""; page++ {
			if visited[pageURL] {
				return
			}
			visited[pageURL] = true

			doc, err := s.Renderer.Render(ctx, pageURL)
			if err != nil {
				yield(models.Post{}, fmt.Errorf("search page %d: %w", page, err))
				return
			}

			result := parseTimeline(doc, s.Instance, pageURL)
			config.Logger.Debugf("search page %d: %d posts", page, len(result.Posts))
			if len(result.Posts) == 0 {
				return
			}

			for _, post := range result.Posts {
				if s.Profiles != nil {
					post = s.Profiles.Enrich(ctx, post)
				}
				if !yield(post, nil) {
					return
				}
			}
			pageURL = result.Next
		}
	}
}
