package renderer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// CollyRenderer fetches server-rendered pages over plain HTTP.
// Requests share one collector, so the delay rule applies across the whole run.
type CollyRenderer struct {
	collector *colly.Collector
}

func NewCollyRenderer(userAgent string, delay, timeout time.Duration) (*CollyRenderer, error) {
	if userAgent == "" {
		userAgent = USER_AGENT
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	if delay > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       delay,
			RandomDelay: delay / 2,
		}); err != nil {
			return nil, fmt.Errorf("set limit rule: %w", err)
		}
	}
	return &CollyRenderer{collector: c}, nil
}

func (r *CollyRenderer) Render(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := r.collector.Clone()
	c.Context = ctx

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})
	c.OnError(func(resp *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, err)
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("fetch %s: %w", url, err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
