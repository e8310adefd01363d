package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coin is one tracked cryptocurrency, keyed by the upstream-assigned coin id.
// Nullable columns are pointers; nil means the upstream never reported a value.
type Coin struct {
	CoinID                       string           `json:"coin_id"`
	Symbol                       string           `json:"symbol"`
	Name                         string           `json:"name"`
	Image                        *string          `json:"image"`
	CurrentPrice                 decimal.Decimal  `json:"current_price"`
	MarketCap                    *int64           `json:"market_cap"`
	MarketCapRank                *int             `json:"market_cap_rank"`
	FullyDilutedValuation        *decimal.Decimal `json:"fully_diluted_valuation"`
	TotalVolume                  *decimal.Decimal `json:"total_volume"`
	High24h                      *decimal.Decimal `json:"high_24h"`
	Low24h                       *decimal.Decimal `json:"low_24h"`
	PriceChange24h               *decimal.Decimal `json:"price_change_24h"`
	PriceChangePercentage24h     *decimal.Decimal `json:"price_change_percentage_24h"`
	MarketCapChange24h           *decimal.Decimal `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *decimal.Decimal `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *decimal.Decimal `json:"circulating_supply"`
	TotalSupply                  *decimal.Decimal `json:"total_supply"`
	MaxSupply                    *decimal.Decimal `json:"max_supply"`
	ATH                          *decimal.Decimal `json:"ath"`
	ATHChangePercentage          *decimal.Decimal `json:"ath_change_percentage"`
	ATHDate                      *time.Time       `json:"ath_date"`
	ATL                          *decimal.Decimal `json:"atl"`
	ATLChangePercentage          *decimal.Decimal `json:"atl_change_percentage"`
	ATLDate                      *time.Time       `json:"atl_date"`
	LastUpdated                  *time.Time       `json:"last_updated"`
	CreatedAt                    time.Time        `json:"created_at"`
	UpdatedAt                    time.Time        `json:"updated_at"`
}

// MarketSnapshot is the raw per-coin row from the upstream markets endpoint.
// Numeric fields are pointers because the upstream reports null for assets
// it has no data for; dates arrive as RFC3339 strings.
type MarketSnapshot struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	Image                        *string  `json:"image"`
	CurrentPrice                 *float64 `json:"current_price"`
	MarketCap                    *int64   `json:"market_cap"`
	MarketCapRank                *int     `json:"market_cap_rank"`
	FullyDilutedValuation        *float64 `json:"fully_diluted_valuation"`
	TotalVolume                  *float64 `json:"total_volume"`
	High24h                      *float64 `json:"high_24h"`
	Low24h                       *float64 `json:"low_24h"`
	PriceChange24h               *float64 `json:"price_change_24h"`
	PriceChangePercentage24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h           *float64 `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64 `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64 `json:"circulating_supply"`
	TotalSupply                  *float64 `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
	ATH                          *float64 `json:"ath"`
	ATHChangePercentage          *float64 `json:"ath_change_percentage"`
	ATHDate                      *string  `json:"ath_date"`
	ATL                          *float64 `json:"atl"`
	ATLChangePercentage          *float64 `json:"atl_change_percentage"`
	ATLDate                      *string  `json:"atl_date"`
	LastUpdated                  *string  `json:"last_updated"`
}

// CoinFromSnapshot maps an upstream snapshot onto the canonical schema.
// Required fields missing or unparsable dates reject the whole record;
// the caller decides what to do with the rest of the batch.
// A missing last_updated falls back to now; ath/atl dates stay nil.
func CoinFromSnapshot(snap MarketSnapshot, now time.Time) (Coin, error) {
	if snap.ID == "" {
		return Coin{}, fmt.Errorf("market snapshot has no id")
	}
	if snap.Symbol == "" || snap.Name == "" {
		return Coin{}, fmt.Errorf("market snapshot %q has no symbol or name", snap.ID)
	}
	if snap.CurrentPrice == nil {
		return Coin{}, fmt.Errorf("market snapshot %q has no current price", snap.ID)
	}

	athDate, err := parseSnapshotTime(snap.ATHDate)
	if err != nil {
		return Coin{}, fmt.Errorf("market snapshot %q: bad ath_date: %w", snap.ID, err)
	}
	atlDate, err := parseSnapshotTime(snap.ATLDate)
	if err != nil {
		return Coin{}, fmt.Errorf("market snapshot %q: bad atl_date: %w", snap.ID, err)
	}
	lastUpdated, err := parseSnapshotTime(snap.LastUpdated)
	if err != nil {
		return Coin{}, fmt.Errorf("market snapshot %q: bad last_updated: %w", snap.ID, err)
	}
	if lastUpdated == nil {
		lastUpdated = &now
	}

	return Coin{
		CoinID:                       snap.ID,
		Symbol:                       strings.ToUpper(snap.Symbol),
		Name:                         snap.Name,
		Image:                        snap.Image,
		CurrentPrice:                 decimal.NewFromFloat(*snap.CurrentPrice),
		MarketCap:                    snap.MarketCap,
		MarketCapRank:                snap.MarketCapRank,
		FullyDilutedValuation:        decimalPtr(snap.FullyDilutedValuation),
		TotalVolume:                  decimalPtr(snap.TotalVolume),
		High24h:                      decimalPtr(snap.High24h),
		Low24h:                       decimalPtr(snap.Low24h),
		PriceChange24h:               decimalPtr(snap.PriceChange24h),
		PriceChangePercentage24h:     decimalPtr(snap.PriceChangePercentage24h),
		MarketCapChange24h:           decimalPtr(snap.MarketCapChange24h),
		MarketCapChangePercentage24h: decimalPtr(snap.MarketCapChangePercentage24h),
		CirculatingSupply:            decimalPtr(snap.CirculatingSupply),
		TotalSupply:                  decimalPtr(snap.TotalSupply),
		MaxSupply:                    decimalPtr(snap.MaxSupply),
		ATH:                          decimalPtr(snap.ATH),
		ATHChangePercentage:          decimalPtr(snap.ATHChangePercentage),
		ATHDate:                      athDate,
		ATL:                          decimalPtr(snap.ATL),
		ATLChangePercentage:          decimalPtr(snap.ATLChangePercentage),
		ATLDate:                      atlDate,
		LastUpdated:                  lastUpdated,
	}, nil
}

func parseSnapshotTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
