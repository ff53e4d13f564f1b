package interfaces

import (
	"context"

	"stocknews-client/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource is what the dashboard fetches on every refresh cycle.
// -----------------------------------------------------------------------------

type IMarketDataSource interface {

	// TopHeadlines returns formatted headlines for a category and country.
	TopHeadlines(ctx context.Context, category, country string) ([]models.MHeadline, error)

	// -----------------------------------------------------------------------------

	// StockQuote returns the latest quote for one symbol.
	StockQuote(ctx context.Context, symbol string) (*models.MStockQuote, error)
}

// -----------------------------------------------------------------------------
// IAccountAPI is what the session manager needs from the backend.
// -----------------------------------------------------------------------------

type IAccountAPI interface {

	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (*models.MToken, error)

	// -----------------------------------------------------------------------------

	// CreateUser registers a new account.
	CreateUser(ctx context.Context, email, username, password string) (*models.MUser, error)

	// -----------------------------------------------------------------------------

	// Profile fetches the user owning token.
	Profile(ctx context.Context, token string) (*models.MUser, error)

	// -----------------------------------------------------------------------------

	// AddFavoriteWithToken and RemoveFavoriteWithToken edit the favorite set.
	AddFavoriteWithToken(ctx context.Context, token, symbol string) error
	RemoveFavoriteWithToken(ctx context.Context, token, symbol string) error
}

// -----------------------------------------------------------------------------
// ITokenProvider supplies the bearer token for authenticated calls.
// -----------------------------------------------------------------------------

type ITokenProvider interface {
	Token() string
}
