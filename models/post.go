package models

import "time"

// Author is the account that published a post.
// Profile fields stay zero when the source could not provide them.
type Author struct {
	ID              string
	Username        string
	DisplayName     string
	CreatedAt       time.Time
	FollowersCount  int
	FollowingCount  int
	Location        string
	ProfileImageURL string
}

// Post is one scraped item. It is read-only once a source has yielded it.
type Post struct {
	ID        string
	CreatedAt time.Time
	Content   string
	LikeCount int
	URL       string
	Author    Author
}
