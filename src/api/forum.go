package api

import (
	"context"
	"net/http"
	"strings"

	"stocknews-client/src/helpers"
	"stocknews-client/src/models"
)

// ParseStocks splits comma-separated symbols, trimming blanks away.
func ParseStocks(input string) []string {
	out := []string{}
	for _, s := range strings.Split(input, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (c *Client) ListPosts(ctx context.Context) ([]models.MForumPost, error) {
	var posts []models.MForumPost
	if err := c.get(ctx, c.endpoint("forum", "posts"), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetPost(ctx context.Context, id string) (*models.MForumPost, error) {
	if err := helpers.RequireFields("post id", id); err != nil {
		return nil, err
	}

	var post models.MForumPost
	if err := c.get(ctx, c.endpoint("forum", "posts", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// -----------------------------------------------------------------------------

// CreatePost publishes a post. stocks is the raw comma-separated symbol list.
func (c *Client) CreatePost(ctx context.Context, title, content, stocks string) (*models.MForumPost, error) {
	if err := helpers.RequireFields("title", title, "content", content); err != nil {
		return nil, err
	}
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	body := models.MNewPost{Title: title, Content: content, Stocks: ParseStocks(stocks)}
	var post models.MForumPost
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoint("forum", "posts"), token, body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// -----------------------------------------------------------------------------

func (c *Client) ListComments(ctx context.Context, postID string) ([]models.MComment, error) {
	if err := helpers.RequireFields("post id", postID); err != nil {
		return nil, err
	}

	var comments []models.MComment
	if err := c.get(ctx, c.endpoint("forum", "posts", postID, "comments"), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// -----------------------------------------------------------------------------

func (c *Client) AddComment(ctx context.Context, postID, content string) (*models.MComment, error) {
	if err := helpers.RequireFields("post id", postID, "content", content); err != nil {
		return nil, err
	}
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	body := map[string]string{"content": content}
	var comment models.MComment
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoint("forum", "posts", postID, "comments"), token, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// -----------------------------------------------------------------------------

func (c *Client) UpvotePost(ctx context.Context, postID string) error {
	if err := helpers.RequireFields("post id", postID); err != nil {
		return err
	}
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, c.endpoint("forum", "posts", postID, "upvote"), token, struct{}{}, nil)
}
