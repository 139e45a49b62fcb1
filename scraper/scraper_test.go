package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-indexer/feeder"
	"tweet-indexer/models"
	"tweet-indexer/renderer"
)

const timelineItem = `
<div class="timeline-item " data-username="%[1]s">
  <a class="tweet-link" href="/%[1]s/status/%[2]s#m"></a>
  <div class="tweet-body">
    <div class="tweet-header">
      <a class="tweet-avatar" href="/%[1]s"><img class="avatar round" src="/pic/profile_images%%2F%[1]s_bigger.jpg" alt=""></a>
      <div class="tweet-name-row">
        <div class="fullname-and-username">
          <a class="fullname" href="/%[1]s" title="%[3]s">%[3]s</a>
          <a class="username" href="/%[1]s" title="@%[1]s">@%[1]s</a>
        </div>
        <span class="tweet-date"><a href="/%[1]s/status/%[2]s#m" title="%[4]s">3h</a></span>
      </div>
    </div>
    <div class="tweet-content media-body" dir="auto">%[5]s</div>
    <div class="tweet-stats">
      <span class="tweet-stat"><div class="icon-container"><span class="icon-comment" title=""></span> 3</div></span>
      <span class="tweet-stat"><div class="icon-container"><span class="icon-retweet" title=""></span> 7</div></span>
      <span class="tweet-stat"><div class="icon-container"><span class="icon-heart" title=""></span> %[6]s</div></span>
    </div>
  </div>
</div>`

func item(user, id, name, date, content, likes string) string {
	return fmt.Sprintf(timelineItem, user, id, name, date, content, likes)
}

func page(items []string, cursor string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="timeline">`)
	b.WriteString(`<div class="timeline-item show-more"><a href="?f=tweets&amp;q=near%3A%22Paris%22">Load newest</a></div>`)
	for _, it := range items {
		b.WriteString(it)
	}
	if cursor != "" {
		fmt.Fprintf(&b, `<div class="show-more"><a href="?f=tweets&amp;q=near%%3A%%22Paris%%22&amp;cursor=%s">Load more</a></div>`, cursor)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

const aliceProfile = `<html><body>
<div class="profile-card">
  <div class="profile-card-info">
    <a class="profile-card-avatar" href="/pic/orig/alice.jpg" target="_blank"><img src="/pic/alice_400x400.jpg" alt=""></a>
    <div class="profile-card-tabs-name">
      <a class="profile-card-fullname" href="/alice" title="Alice">Alice</a>
      <a class="profile-card-username" href="/alice" title="@alice">@alice</a>
    </div>
  </div>
  <div class="profile-card-extra">
    <div class="profile-location"><span><span class="icon-location" title=""></span></span><span>Paris, France</span></div>
    <div class="profile-joindate"><span title="12:50 PM - 21 Mar 2009"><span class="icon-calendar" title=""></span> Joined March 2009</span></div>
    <div class="profile-card-extra-links">
      <ul class="profile-statlist">
        <li class="posts"><span class="profile-stat-header">Tweets</span><span class="profile-stat-num">29,115</span></li>
        <li class="following"><span class="profile-stat-header">Following</span><span class="profile-stat-num">413</span></li>
        <li class="followers"><span class="profile-stat-header">Followers</span><span class="profile-stat-num">6,592</span></li>
      </ul>
    </div>
  </div>
</div>
</body></html>`

type fakeNitter struct {
	*httptest.Server

	mu       sync.Mutex
	searches []string
	profiles map[string]int
	queries  []string
	fail     bool
}

func newFakeNitter(t *testing.T) *fakeNitter {
	f := &fakeNitter{profiles: make(map[string]int)}
	pages := map[string]string{
		"": page([]string{
			item("alice", "1001", "Alice", "Oct 3, 2023 · 6:04 PM UTC", "Bonjour de Paris", "1,234"),
			item("bob", "1002", "Bob", "Oct 3, 2023 · 5:00 PM UTC", "Hello from Paris", "12"),
		}, "abc"),
		"abc": page([]string{
			item("alice", "1003", "Alice", "Oct 2, 2023 · 9:30 AM UTC", "Encore un tweet", "0"),
		}, "def"),
		"def": page(nil, "ghi"),
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/search":
			if f.fail {
				http.Error(w, "instance overloaded", http.StatusServiceUnavailable)
				return
			}
			cursor := r.URL.Query().Get("cursor")
			f.searches = append(f.searches, cursor)
			f.queries = append(f.queries, r.URL.Query().Get("q"))
			body, ok := pages[cursor]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		case r.URL.Path == "/alice":
			f.profiles["alice"]++
			_, _ = w.Write([]byte(aliceProfile))
		default:
			f.profiles[strings.TrimPrefix(r.URL.Path, "/")]++
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeNitter) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func newTestRenderer(t *testing.T) renderer.Renderer {
	r, err := renderer.NewCollyRenderer("test-agent/1.0", 0, 5*time.Second)
	require.NoError(t, err)
	return r
}

func collect(t *testing.T, src Source, location string) []models.Post {
	var posts []models.Post
	for p, err := range src.Search(context.Background(), location) {
		require.NoError(t, err)
		posts = append(posts, p)
	}
	return posts
}

func TestQuery(t *testing.T) {
	assert.Equal(t, `near:"Paris"`, Query("Paris"))
	assert.Equal(t, `near:"New York"`, Query("New York"))
}

func TestStatusRef(t *testing.T) {
	tests := []struct {
		link     string
		username string
		id       string
		ok       bool
	}{
		{"/jack/status/20#m", "jack", "20", true},
		{"https://nitter.net/jack/status/20#m", "jack", "20", true},
		{"https://nitter.net/i/web/status/", "", "", false},
		{"/jack", "", "", false},
		{"/jack/status/abc", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			username, id, ok := statusRef(tt.link)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.username, username)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestHTMLScraperPagesThroughTimeline(t *testing.T) {
	nitter := newFakeNitter(t)
	src := NewHTMLScraper(nitter.URL, newTestRenderer(t), nil)

	posts := collect(t, src, "Paris")
	require.Len(t, posts, 3)

	first := posts[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, "Bonjour de Paris", first.Content)
	assert.Equal(t, 1234, first.LikeCount)
	assert.Equal(t, "https://twitter.com/alice/status/1001", first.URL)
	assert.Equal(t, time.Date(2023, 10, 3, 18, 4, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, "alice", first.Author.Username)
	assert.Equal(t, "Alice", first.Author.DisplayName)
	assert.Equal(t, nitter.URL+"/pic/profile_images%2Falice_bigger.jpg", first.Author.ProfileImageURL)

	assert.Equal(t, "1002", posts[1].ID)
	assert.Equal(t, "1003", posts[2].ID)

	// the empty third page ends the sequence
	assert.Equal(t, []string{"", "abc", "def"}, nitter.searches)
	assert.Equal(t, `near:"Paris"`, nitter.queries[0])
}

func TestHTMLScraperIsLazy(t *testing.T) {
	nitter := newFakeNitter(t)
	src := NewHTMLScraper(nitter.URL, newTestRenderer(t), nil)

	for p, err := range src.Search(context.Background(), "Paris") {
		require.NoError(t, err)
		assert.Equal(t, "1001", p.ID)
		break
	}
	assert.Equal(t, 1, nitter.searchCount())
}

func TestHTMLScraperEnrichesProfilesOnce(t *testing.T) {
	nitter := newFakeNitter(t)
	r := newTestRenderer(t)
	src := NewHTMLScraper(nitter.URL, r, NewProfileEnricher(nitter.URL, r))

	posts := collect(t, src, "Paris")
	require.Len(t, posts, 3)

	alice := posts[0].Author
	assert.Equal(t, 6592, alice.FollowersCount)
	assert.Equal(t, 413, alice.FollowingCount)
	assert.Equal(t, "Paris, France", alice.Location)
	assert.Equal(t, time.Date(2009, 3, 21, 12, 50, 0, 0, time.UTC), alice.CreatedAt)
	// the timeline avatar is kept
	assert.Equal(t, nitter.URL+"/pic/profile_images%2Falice_bigger.jpg", alice.ProfileImageURL)

	// bob's profile is missing: the post is still produced
	bob := posts[1].Author
	assert.Equal(t, "bob", bob.Username)
	assert.Zero(t, bob.FollowersCount)
	assert.True(t, bob.CreatedAt.IsZero())

	assert.Equal(t, posts[0].Author, posts[2].Author)
	assert.Equal(t, 1, nitter.profiles["alice"])
	assert.Equal(t, 1, nitter.profiles["bob"])
}

func TestHTMLScraperSourceError(t *testing.T) {
	nitter := newFakeNitter(t)
	nitter.fail = true
	src := NewHTMLScraper(nitter.URL, newTestRenderer(t), nil)

	var errs []error
	for _, err := range src.Search(context.Background(), "Paris") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "search page 1")
}

const rssSearch = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <channel>
    <title>Search results</title>
    <link>https://nitter.example/search</link>
    <item>
      <title>Bonjour</title>
      <dc:creator>@alice</dc:creator>
      <description><![CDATA[<p>Bonjour <a href="https://nitter.example/paris">#Paris</a></p>]]></description>
      <pubDate>Tue, 03 Oct 2023 18:04:05 GMT</pubDate>
      <guid>https://nitter.example/alice/status/1001#m</guid>
      <link>https://nitter.example/alice/status/1001#m</link>
    </item>
    <item>
      <title>not a status</title>
      <link>https://nitter.example/alice</link>
    </item>
  </channel>
</rss>`

func TestRSSScraper(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(rssSearch))
	}))
	defer srv.Close()

	src := NewRSSScraper(srv.URL, feeder.NewFetcher("test-agent/1.0", 5*time.Second), nil)
	posts := collect(t, src, "Paris")
	require.Len(t, posts, 1)

	assert.Equal(t, "/search/rss", gotPath)
	assert.Equal(t, `near:"Paris"`, gotQuery)

	p := posts[0]
	assert.Equal(t, "1001", p.ID)
	assert.Equal(t, "alice", p.Author.Username)
	assert.Equal(t, "Bonjour #Paris", p.Content)
	assert.Equal(t, "https://twitter.com/alice/status/1001", p.URL)
	assert.Equal(t, time.Date(2023, 10, 3, 18, 4, 5, 0, time.UTC), p.CreatedAt)
}
