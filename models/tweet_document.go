package models

import "time"

// TweetDocument is the _source written to tweets_index.
// Keys match the documents already stored by earlier versions of the tool.
type TweetDocument struct {
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	ProfileCreated *time.Time `json:"profil_created_at,omitempty"`
	FollowersCount int        `json:"followersCount"`
	FriendsCount   int        `json:"friendsCount"`
	Location       string     `json:"location"`
	Tagname        string     `json:"tagname"`
	ProfileImage   string     `json:"profile_img"`
	CreatedAt      *time.Time `json:"created_at"`
	TweetContent   string     `json:"tweet_content"`
	LikesCount     int        `json:"likes_count"`
	TweetURL       string     `json:"tweet_url"`
}

// NewTweetDocument maps a post onto its index document.
func NewTweetDocument(p Post) TweetDocument {
	return TweetDocument{
		UserID:         p.Author.ID,
		Username:       p.Author.Username,
		ProfileCreated: timeOrNil(p.Author.CreatedAt),
		FollowersCount: p.Author.FollowersCount,
		FriendsCount:   p.Author.FollowingCount,
		Location:       p.Author.Location,
		Tagname:        p.Author.DisplayName,
		ProfileImage:   p.Author.ProfileImageURL,
		CreatedAt:      timeOrNil(p.CreatedAt),
		TweetContent:   p.Content,
		LikesCount:     p.LikeCount,
		TweetURL:       p.URL,
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
