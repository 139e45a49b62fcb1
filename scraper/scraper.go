package scraper

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"tweet-indexer/models"
)

// CanonicalHost is used to build post URLs independent of the instance scraped.
const CanonicalHost = "https://twitter.com"

// Source produces the posts matching a location query.
//
// The sequence is lazy: every pull may block on network I/O, and it only ends
// when the source runs out of results or the consumer stops ranging. Ranging
// again issues a fresh query. A yielded error ends the sequence.
type Source interface {
	Search(ctx context.Context, location string) iter.Seq2[models.Post, error]
}

// Query builds the geographic search query for a location.
func Query(location string) string {
	return fmt.Sprintf(`near:"%s"`, location)
}

func searchURL(instance, path, location string) string {
	q := url.Values{}
	q.Set("f", "tweets")
	q.Set("q", Query(location))
	return strings.TrimRight(instance, "/") + path + "?" + q.Encode()
}

// statusRef extracts username and post id from a status link such as
// "/jack/status/20#m" or "https://nitter.net/jack/status/20#m".
func statusRef(link string) (username, id string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i+1] == "status" {
			username, id = parts[i], parts[i+2]
			break
		}
	}
	if username == "" || id == "" {
		return "", "", false
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", "", false
	}
	return username, id, true
}

func canonicalURL(username, id string) string {
	return fmt.Sprintf("%s/%s/status/%s", CanonicalHost, username, id)
}

// absoluteURL resolves ref (often "/pic/...") against the instance base.
func absoluteURL(instance, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(strings.TrimRight(instance, "/") + "/")
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// parseCount turns "6,592,411" or " 12 " into an int. Unparseable input is 0.
func parseCount(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
