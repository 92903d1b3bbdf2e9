package models

import (
	"time"
)

// Post is the full post document returned by the feed and the write and
// engagement endpoints: owner resolved, like membership and comments
// embedded, counts alongside. Clients render comment bodies straight from
// feed entries, so the feed carries them too.
type Post struct {
	ID            int       `json:"id" db:"id"`
	Owner         Owner     `json:"owner"`
	Image         string    `json:"image" db:"image_url"`
	Likes         []int     `json:"likes"`
	Comments      []Comment `json:"comments"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Comment is owned exclusively by its parent post. The username is a
// snapshot taken at write time and is not kept in sync with later renames.
type Comment struct {
	ID        int       `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Text      string    `json:"text" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
