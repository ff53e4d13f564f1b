package api

import (
	"context"
	"strconv"

	"stocknews-client/src/helpers"
	"stocknews-client/src/models"
)

const noDescription = "No description available"

// -----------------------------------------------------------------------------
// NewsAPI passthrough
// -----------------------------------------------------------------------------

// TopHeadlines returns formatted headlines for a category and country.
func (c *Client) TopHeadlines(ctx context.Context, category, country string) ([]models.MHeadline, error) {
	var resp models.MNewsAPIResponse
	query := map[string]string{"category": category, "country": country}
	if err := c.get(ctx, c.endpoint("newsapi", "top-headlines"), query, &resp); err != nil {
		return nil, err
	}
	return FormatHeadlines(resp.Articles), nil
}

// -----------------------------------------------------------------------------

// Everything searches all NewsAPI articles matching q, newest first.
func (c *Client) Everything(ctx context.Context, q string) ([]models.MHeadline, error) {
	if err := helpers.RequireFields("query", q); err != nil {
		return nil, err
	}

	var resp models.MNewsAPIResponse
	query := map[string]string{"q": q, "sortBy": "publishedAt", "language": "en"}
	if err := c.get(ctx, c.endpoint("newsapi", "everything"), query, &resp); err != nil {
		return nil, err
	}
	return FormatHeadlines(resp.Articles), nil
}

// -----------------------------------------------------------------------------

// FormatHeadlines maps NewsAPI articles to headlines, numbered by position.
func FormatHeadlines(articles []models.MNewsAPIArticle) []models.MHeadline {
	out := make([]models.MHeadline, 0, len(articles))
	for i, a := range articles {
		summary := a.Description
		if summary == "" {
			summary = noDescription
		}
		out = append(out, models.MHeadline{
			ID:       i,
			Headline: a.Title,
			Summary:  summary,
			Datetime: a.PublishedAt,
			Source:   a.Source.Name,
		})
	}
	return out
}

// -----------------------------------------------------------------------------
// Quotes
// -----------------------------------------------------------------------------

// StockQuote returns the latest quote for one symbol.
func (c *Client) StockQuote(ctx context.Context, symbol string) (*models.MStockQuote, error) {
	if err := helpers.RequireFields("symbol", symbol); err != nil {
		return nil, err
	}

	var quote models.MStockQuote
	if err := c.get(ctx, c.endpoint("stock", symbol), nil, &quote); err != nil {
		return nil, err
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	return &quote, nil
}

// -----------------------------------------------------------------------------
// Catalogue
// -----------------------------------------------------------------------------

// ListNews returns recent news, optionally filtered by category.
func (c *Client) ListNews(ctx context.Context, category string, limit int) ([]models.MNewsItem, error) {
	query := map[string]string{}
	if category != "" {
		query["category"] = category
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var items []models.MNewsItem
	if err := c.get(ctx, c.endpoint("news"), query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetNews(ctx context.Context, id string) (*models.MNewsItem, error) {
	if err := helpers.RequireFields("news id", id); err != nil {
		return nil, err
	}

	var item models.MNewsItem
	if err := c.get(ctx, c.endpoint("news", id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// -----------------------------------------------------------------------------

func (c *Client) NewsImpacts(ctx context.Context, id string) ([]models.MStockImpact, error) {
	if err := helpers.RequireFields("news id", id); err != nil {
		return nil, err
	}

	var impacts []models.MStockImpact
	if err := c.get(ctx, c.endpoint("news", id, "impacts"), nil, &impacts); err != nil {
		return nil, err
	}
	return impacts, nil
}

// -----------------------------------------------------------------------------

// ListStocks returns tracked stocks, optionally filtered by exchange.
func (c *Client) ListStocks(ctx context.Context, exchange string) ([]models.MStock, error) {
	query := map[string]string{}
	if exchange != "" {
		query["exchange"] = exchange
	}

	var stocks []models.MStock
	if err := c.get(ctx, c.endpoint("stocks"), query, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// -----------------------------------------------------------------------------

// GetStock looks a stock up by id or symbol.
func (c *Client) GetStock(ctx context.Context, idOrSymbol string) (*models.MStock, error) {
	if err := helpers.RequireFields("stock", idOrSymbol); err != nil {
		return nil, err
	}

	var stock models.MStock
	if err := c.get(ctx, c.endpoint("stocks", idOrSymbol), nil, &stock); err != nil {
		return nil, err
	}
	return &stock, nil
}

// -----------------------------------------------------------------------------

func (c *Client) StockNews(ctx context.Context, idOrSymbol string) ([]models.MNewsItem, error) {
	if err := helpers.RequireFields("stock", idOrSymbol); err != nil {
		return nil, err
	}

	var items []models.MNewsItem
	if err := c.get(ctx, c.endpoint("stocks", idOrSymbol, "news"), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
