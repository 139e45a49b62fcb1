package scraper

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tweet-indexer/config"
	"tweet-indexer/models"
)

// Nitter renders tweet dates as "Mar 21, 2006 · 8:50 PM UTC" and join dates
// as "12:50 PM - 21 Mar 2006".
const (
	tweetDateLayout = "Jan 2, 2006 · 3:04 PM MST"
	joinDateLayout  = "3:04 PM - 2 Jan 2006"
)

type timelinePage struct {
	Posts []models.Post
	Next  string
}

// parseTimeline extracts the posts of a search page and the absolute URL of the
// next page, if any.
func parseTimeline(doc *goquery.Document, instance, pageURL string) timelinePage {
	var page timelinePage

	doc.Find("div.timeline-item").Each(func(_ int, item *goquery.Selection) {
		if item.HasClass("show-more") {
			return
		}
		post, ok := parseTimelineItem(item, instance)
		if !ok {
			config.Logger.Debugf("skipping timeline item without status link")
			return
		}
		page.Posts = append(page.Posts, post)
	})

	// the "load newest" link at the top is itself a timeline item
	more := doc.Find("div.show-more").Not(".timeline-item").Find("a").Last()
	if href, ok := more.Attr("href"); ok && strings.TrimSpace(href) != "" {
		page.Next = resolveAgainst(pageURL, href)
	}
	return page
}

func parseTimelineItem(item *goquery.Selection, instance string) (models.Post, bool) {
	href, _ := item.Find("a.tweet-link").First().Attr("href")
	if href == "" {
		href, _ = item.Find("span.tweet-date a").First().Attr("href")
	}
	linkUser, id, ok := statusRef(href)
	if !ok {
		return models.Post{}, false
	}

	username := strings.TrimPrefix(strings.TrimSpace(item.Find("a.username").First().Text()), "@")
	if username == "" {
		username = linkUser
	}

	avatar, _ := item.Find("img.avatar").First().Attr("src")

	var created time.Time
	if title, ok := item.Find("span.tweet-date a").First().Attr("title"); ok {
		if t, err := time.Parse(tweetDateLayout, strings.TrimSpace(title)); err == nil {
			created = t.UTC()
		}
	}

	likes := 0
	item.Find("span.tweet-stat").EachWithBreak(func(_ int, stat *goquery.Selection) bool {
		if stat.Find(".icon-heart").Length() == 0 {
			return true
		}
		likes = parseCount(stat.Text())
		return false
	})

	return models.Post{
		ID:        id,
		CreatedAt: created,
		Content:   strings.TrimSpace(item.Find("div.tweet-content").First().Text()),
		LikeCount: likes,
		URL:       canonicalURL(linkUser, id),
		Author: models.Author{
			Username:        username,
			DisplayName:     strings.TrimSpace(item.Find("a.fullname").First().Text()),
			ProfileImageURL: absoluteURL(instance, avatar),
		},
	}, true
}

// parseProfile reads the profile card of a user page.
func parseProfile(doc *goquery.Document, instance string) models.Author {
	var a models.Author

	card := doc.Find("div.profile-card").First()
	a.DisplayName = strings.TrimSpace(card.Find("a.profile-card-fullname").First().Text())
	a.Username = strings.TrimPrefix(strings.TrimSpace(card.Find("a.profile-card-username").First().Text()), "@")

	if title, ok := card.Find("div.profile-joindate span[title]").First().Attr("title"); ok {
		if t, err := time.Parse(joinDateLayout, strings.TrimSpace(title)); err == nil {
			a.CreatedAt = t.UTC()
		}
	}

	a.FollowersCount = parseCount(card.Find("li.followers span.profile-stat-num").First().Text())
	a.FollowingCount = parseCount(card.Find("li.following span.profile-stat-num").First().Text())
	a.Location = strings.TrimSpace(card.Find("div.profile-location").First().Text())

	avatar, _ := card.Find("a.profile-card-avatar").First().Attr("href")
	if avatar == "" {
		avatar, _ = card.Find("a.profile-card-avatar img").First().Attr("src")
	}
	a.ProfileImageURL = absoluteURL(instance, avatar)
	return a
}

func resolveAgainst(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}
