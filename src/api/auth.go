package api

import (
	"context"
	"net/http"
	"net/url"

	"stocknews-client/src/helpers"
	"stocknews-client/src/models"
)

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

// Login exchanges form-encoded credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.MToken, error) {
	if err := helpers.RequireFields("username", username, "password", password); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var token models.MToken
	if err := c.sendForm(ctx, c.endpoint("login"), form, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, helpers.NewAuthenticationError("login response carried no token", nil)
	}
	return &token, nil
}

// -----------------------------------------------------------------------------

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, email, username, password string) (*models.MUser, error) {
	if err := helpers.RequireFields("email", email, "username", username, "password", password); err != nil {
		return nil, err
	}

	body := models.MUserCreate{Email: email, Username: username, Password: password}
	var user models.MUser
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoint("users"), "", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// -----------------------------------------------------------------------------

// Profile fetches the user that owns token.
func (c *Client) Profile(ctx context.Context, token string) (*models.MUser, error) {
	if token == "" {
		return nil, helpers.NewValidationError("login required")
	}

	var user models.MUser
	err := c.call(ctx, &models.MHTTPRequest{
		Method:      http.MethodGet,
		URL:         c.endpoint("users", "me"),
		BearerToken: token,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// -----------------------------------------------------------------------------
// Favorites
// -----------------------------------------------------------------------------

func (c *Client) AddFavoriteWithToken(ctx context.Context, token, symbol string) error {
	if err := helpers.RequireFields("symbol", symbol); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, c.endpoint("users", "me", "favorite-stocks", symbol), token, struct{}{}, nil)
}

// -----------------------------------------------------------------------------

func (c *Client) RemoveFavoriteWithToken(ctx context.Context, token, symbol string) error {
	if err := helpers.RequireFields("symbol", symbol); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodDelete, c.endpoint("users", "me", "favorite-stocks", symbol), token, nil, nil)
}

// -----------------------------------------------------------------------------

// AddFavorite adds symbol to the current user's favorites.
func (c *Client) AddFavorite(ctx context.Context, symbol string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	return c.AddFavoriteWithToken(ctx, token, symbol)
}

// -----------------------------------------------------------------------------

// RemoveFavorite removes symbol from the current user's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, symbol string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	return c.RemoveFavoriteWithToken(ctx, token, symbol)
}

// -----------------------------------------------------------------------------

// FavoriteStocks resolves the user's favorite symbols into stock records.
// Symbols that fail to resolve are logged and skipped.
func (c *Client) FavoriteStocks(ctx context.Context, user *models.MUser) []models.MStock {
	if user == nil || len(user.FavoriteStocks) == 0 {
		return nil
	}

	stocks := make([]models.MStock, 0, len(user.FavoriteStocks))
	for _, symbol := range user.FavoriteStocks {
		stock, err := c.GetStock(ctx, symbol)
		if err != nil {
			c.Logger.Warning("Error fetching stock %s: %v", symbol, err)
			continue
		}
		stocks = append(stocks, *stock)
	}
	return stocks
}
