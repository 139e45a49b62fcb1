package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tweet-indexer/config"
	"tweet-indexer/langdetect"
	"tweet-indexer/models"
	"tweet-indexer/scraper"
	"tweet-indexer/search"
)

var ErrEmptyLocation = errors.New("location must not be empty")

// Classifier returns the language code of a text, or langdetect.ErrorLanguage.
type Classifier interface {
	Classify(text string) string
}

type IngestRequest struct {
	Location  string
	Languages []string
	MaxTweets int
}

type IngestResult struct {
	RunID string
	// Examined counts the posts considered before the cutoff.
	Examined int
	Matched  int
	Indexed  int
	Failed   int
}

type stage string

const (
	stageIdle     stage = "idle"
	stageScraping stage = "scraping"
	stageFlushed  stage = "flushed"
)

// IngestService scrapes posts near a location and bulk-indexes those written
// in an allowed language.
type IngestService struct {
	indexer    search.Indexer
	source     scraper.Source
	classifier Classifier
}

func NewIngestService(indexer search.Indexer, source scraper.Source, classifier Classifier) *IngestService {
	return &IngestService{indexer: indexer, source: source, classifier: classifier}
}

// Run performs one ingestion. Every post pulled from the source is classified,
// then the run stops once MaxTweets posts have been considered. The batch is
// written with a single bulk request, even when empty. A source error aborts
// the run before anything is written.
func (s *IngestService) Run(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.Location == "" {
		return nil, ErrEmptyLocation
	}

	result := &IngestResult{RunID: uuid.NewString()}
	s.logStage(result, stageIdle, config.Fields{"location": req.Location, "max_tweets": req.MaxTweets})

	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}

	s.logStage(result, stageScraping, nil)

	var batch []search.BulkDocument
	i := 0
	for post, err := range s.source.Search(ctx, req.Location) {
		if err != nil {
			config.ErrorWithFields("scraping aborted", config.Fields{
				"run_id": result.RunID,
				"error":  err.Error(),
			})
			return nil, fmt.Errorf("scrape posts near %q: %w", req.Location, err)
		}

		lang := s.classifier.Classify(post.Content)
		if i >= req.MaxTweets {
			break
		}
		i++
		result.Examined++

		// unclassified posts carry langdetect.ErrorLanguage and only pass an allow-list naming it
		if !langdetect.Allowed(lang, req.Languages) {
			config.Logger.Debugf("skipping post %s: language %s", post.ID, lang)
			continue
		}
		batch = append(batch, newBulkDocument(post))
	}
	result.Matched = len(batch)

	bulk, err := s.indexer.BulkWrite(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("bulk write %d documents: %w", len(batch), err)
	}
	result.Indexed = bulk.Indexed
	result.Failed = bulk.Failed

	s.logStage(result, stageFlushed, config.Fields{
		"examined": result.Examined,
		"matched":  result.Matched,
		"indexed":  result.Indexed,
		"failed":   result.Failed,
	})
	return result, nil
}

func (s *IngestService) ensureIndex(ctx context.Context) error {
	exists, err := s.indexer.IndexExists(ctx, search.TweetsIndex)
	if err != nil {
		return fmt.Errorf("check index %s: %w", search.TweetsIndex, err)
	}
	if exists {
		return nil
	}
	if err := s.indexer.CreateIndex(ctx, search.TweetsIndex, search.TweetsMapping()); err != nil {
		return fmt.Errorf("create index %s: %w", search.TweetsIndex, err)
	}
	config.Logger.Infof("created index %s", search.TweetsIndex)
	return nil
}

func (s *IngestService) logStage(r *IngestResult, st stage, extra config.Fields) {
	fields := config.Fields{"run_id": r.RunID, "stage": string(st)}
	for k, v := range extra {
		fields[k] = v
	}
	config.InfoWithFields("ingest stage", fields)
}

func newBulkDocument(p models.Post) search.BulkDocument {
	return search.BulkDocument{
		Index: search.TweetsIndex,
		ID:    p.ID,
		Body:  models.NewTweetDocument(p),
	}
}
