package dashboard

import (
	"github.com/shopspring/decimal"

	"stocknews-client/src/models"
)

// FetchFailedMessage is shown whenever a refresh cycle fails.
const FetchFailedMessage = "Failed to fetch data"

// CompanyNames backs quotes the backend returns without a name.
var CompanyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"MSFT":  "Microsoft Corp.",
	"AMZN":  "Amazon.com Inc.",
	"TSLA":  "Tesla Inc.",
	"META":  "Meta Platforms Inc.",
	"NVDA":  "NVIDIA Corp.",
	"JPM":   "JPMorgan Chase & Co.",
	"V":     "Visa Inc.",
	"JNJ":   "Johnson & Johnson",
}

func item(symbol, name, price, change string) models.MPerformanceItem {
	return models.MPerformanceItem{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		ChangePercent: decimal.RequireFromString(change),
	}
}

// No live feed exists for funds and ETFs; these rows are fixed.
var mutualFunds = []models.MPerformanceItem{
	item("VFIAX", "Vanguard 500 Index", "432.18", "1.25"),
	item("FXAIX", "Fidelity 500 Index", "178.45", "1.18"),
	item("SWPPX", "Schwab S&P 500 Index", "68.92", "1.22"),
	item("VTSAX", "Vanguard Total Stock", "118.75", "0.95"),
	item("VBTLX", "Vanguard Total Bond", "10.25", "-0.15"),
	item("PRMTX", "T. Rowe Price Growth", "142.65", "1.75"),
	item("AGTHX", "American Growth Fund", "65.87", "0.92"),
	item("FCNTX", "Fidelity Contrafund", "17.53", "1.45"),
	item("VWELX", "Vanguard Wellington", "45.76", "0.35"),
	item("VDIGX", "Vanguard Dividend Growth", "35.42", "0.65"),
}

var etfs = []models.MPerformanceItem{
	item("SPY", "SPDR S&P 500 ETF", "478.35", "1.32"),
	item("QQQ", "Invesco QQQ Trust", "425.67", "1.85"),
	item("VTI", "Vanguard Total Stock ETF", "252.18", "1.05"),
	item("VOO", "Vanguard S&P 500 ETF", "438.92", "1.28"),
	item("ARKK", "ARK Innovation ETF", "45.23", "-2.15"),
	item("IVV", "iShares Core S&P 500", "475.12", "1.30"),
	item("VEA", "Vanguard FTSE Developed", "48.75", "0.45"),
	item("IEFA", "iShares Core MSCI EAFE", "72.38", "0.55"),
	item("AGG", "iShares Core US Aggregate", "108.25", "-0.25"),
	item("BND", "Vanguard Total Bond ETF", "72.15", "-0.18"),
}

// MutualFunds returns a fresh copy of the fixed fund rows.
func MutualFunds() []models.MPerformanceItem {
	return append([]models.MPerformanceItem(nil), mutualFunds...)
}

// ETFs returns a fresh copy of the fixed ETF rows.
func ETFs() []models.MPerformanceItem {
	return append([]models.MPerformanceItem(nil), etfs...)
}

// StockItem turns a quote into a sidebar row.
func StockItem(q *models.MStockQuote) models.MPerformanceItem {
	name := q.Name
	if name == "" {
		name = CompanyNames[q.Symbol]
	}
	if name == "" {
		name = q.Symbol
	}
	return models.MPerformanceItem{
		Symbol:        q.Symbol,
		Name:          name,
		Price:         q.Price,
		ChangePercent: q.Change,
	}
}
