package interfaces

import (
	"context"

	"stocknews-client/src/models"
)

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests with retry logic.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Do performs the request. A response is returned for every status code;
	// an error means the request could not complete.
	Do(ctx context.Context, req *models.MHTTPRequest) (*models.MHTTPResponse, error)
}
