package models

import "time"

// MUser is the profile returned by /users/me.
type MUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	FavoriteStocks []string  `json:"favorite_stocks"`
	FavoriteNews   []string  `json:"favorite_news"`
}

// HasFavorite reports whether symbol is in the user's favorite set.
func (u *MUser) HasFavorite(symbol string) bool {
	for _, s := range u.FavoriteStocks {
		if s == symbol {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so observers never share the favorites slice.
func (u *MUser) Clone() *MUser {
	if u == nil {
		return nil
	}
	c := *u
	c.FavoriteStocks = append([]string(nil), u.FavoriteStocks...)
	c.FavoriteNews = append([]string(nil), u.FavoriteNews...)
	return &c
}

// MToken is the login response body.
type MToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MUserCreate is the registration request body.
type MUserCreate struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
