package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Dashboard categories
// -----------------------------------------------------------------------------

type MView string

const (
	ViewStocks      MView = "stocks"
	ViewMutualFunds MView = "mutualFunds"
	ViewETFs        MView = "etfs"
)

// Views lists the categories in rotation order.
var Views = []MView{ViewStocks, ViewMutualFunds, ViewETFs}

// Valid reports whether v is one of the known categories.
func (v MView) Valid() bool {
	switch v {
	case ViewStocks, ViewMutualFunds, ViewETFs:
		return true
	}
	return false
}

// Next returns the category that follows v in the rotation.
func (v MView) Next() MView {
	switch v {
	case ViewStocks:
		return ViewMutualFunds
	case ViewMutualFunds:
		return ViewETFs
	default:
		return ViewStocks
	}
}

// Title is the sidebar heading for the category.
func (v MView) Title() string {
	switch v {
	case ViewStocks:
		return "Stock Performance"
	case ViewMutualFunds:
		return "Mutual Fund Performance"
	default:
		return "ETF Performance"
	}
}

// -----------------------------------------------------------------------------
// Performance data
// -----------------------------------------------------------------------------

// MPerformanceItem is one sidebar row.
type MPerformanceItem struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// FormattedPrice renders the price with two decimals.
func (p MPerformanceItem) FormattedPrice() string {
	return p.Price.StringFixed(2)
}

// FormattedChange renders the change with an explicit sign, e.g. "+1.25%".
func (p MPerformanceItem) FormattedChange() string {
	s := p.ChangePercent.StringFixed(2) + "%"
	if p.ChangePercent.IsPositive() {
		return "+" + s
	}
	return s
}

// Gaining reports whether the change is non-negative.
func (p MPerformanceItem) Gaining() bool {
	return !p.ChangePercent.IsNegative()
}

// MPerformanceSnapshot is a fully replaced view of fetched market data.
type MPerformanceSnapshot struct {
	Stocks      []MPerformanceItem `json:"stocks"`
	MutualFunds []MPerformanceItem `json:"mutual_funds"`
	ETFs        []MPerformanceItem `json:"etfs"`
	FetchedAt   time.Time          `json:"fetched_at"`
	MarketOpen  bool               `json:"market_open"`
}

// Items returns the rows for the given category.
func (s MPerformanceSnapshot) Items(v MView) []MPerformanceItem {
	switch v {
	case ViewStocks:
		return s.Stocks
	case ViewMutualFunds:
		return s.MutualFunds
	default:
		return s.ETFs
	}
}

// IsEmpty reports whether the snapshot carries no rows at all.
func (s MPerformanceSnapshot) IsEmpty() bool {
	return len(s.Stocks) == 0 && len(s.MutualFunds) == 0 && len(s.ETFs) == 0
}

// MStockQuote is the /stock/{symbol} response.
type MStockQuote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Change decimal.Decimal `json:"change"`
}

// -----------------------------------------------------------------------------
// Headlines (NewsAPI passthrough)
// -----------------------------------------------------------------------------

type MHeadline struct {
	ID       int       `json:"id"`
	Headline string    `json:"headline"`
	Summary  string    `json:"summary"`
	Datetime time.Time `json:"datetime"`
	Source   string    `json:"source"`
}

type MNewsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []MNewsAPIArticle `json:"articles"`
}

type MNewsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// -----------------------------------------------------------------------------
// Backend catalogue
// -----------------------------------------------------------------------------

type MStock struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange"`
	CreatedAt time.Time `json:"created_at"`
}

type MNewsItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	URL              string    `json:"url"`
	Source           string    `json:"source"`
	PublishedAt      time.Time `json:"published_at"`
	Category         string    `json:"category"`
	AffectedStocks   []string  `json:"affected_stocks"`
	ConfidenceScore  float64   `json:"confidence_score"`
	ValidatedSources []string  `json:"validated_sources"`
	CreatedAt        time.Time `json:"created_at"`
}

type MStockImpact struct {
	ID          string    `json:"id"`
	NewsID      string    `json:"news_id"`
	StockID     string    `json:"stock_id"`
	ImpactScore float64   `json:"impact_score"`
	Explanation string    `json:"explanation"`
	CreatedAt   time.Time `json:"created_at"`
}
