package models

import "time"

type MForumPost struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Stocks    []string  `json:"stocks"`
	Upvotes   int       `json:"upvotes"`
	Comments  []string  `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

type MComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
}

// MNewPost is the create-post request body.
type MNewPost struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Stocks  []string `json:"stocks"`
}
