package handler

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// CoinResource is the wire shape of one coin. Decimals go out as plain JSON
// numbers; the two formatted_* fields are display strings derived at read
// time and never persisted.
type CoinResource struct {
	ID                           string     `json:"id"`
	Symbol                       string     `json:"symbol"`
	Name                         string     `json:"name"`
	Image                        *string    `json:"image"`
	CurrentPrice                 float64    `json:"current_price"`
	MarketCap                    *int64     `json:"market_cap"`
	MarketCapRank                *int       `json:"market_cap_rank"`
	FullyDilutedValuation        *float64   `json:"fully_diluted_valuation"`
	TotalVolume                  *float64   `json:"total_volume"`
	High24h                      *float64   `json:"high_24h"`
	Low24h                       *float64   `json:"low_24h"`
	PriceChange24h               *float64   `json:"price_change_24h"`
	PriceChangePercentage24h     *float64   `json:"price_change_percentage_24h"`
	MarketCapChange24h           *float64   `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64   `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64   `json:"circulating_supply"`
	TotalSupply                  *float64   `json:"total_supply"`
	MaxSupply                    *float64   `json:"max_supply"`
	ATH                          *float64   `json:"ath"`
	ATHChangePercentage          *float64   `json:"ath_change_percentage"`
	ATHDate                      *time.Time `json:"ath_date"`
	ATL                          *float64   `json:"atl"`
	ATLChangePercentage          *float64   `json:"atl_change_percentage"`
	ATLDate                      *time.Time `json:"atl_date"`
	LastUpdated                  *time.Time `json:"last_updated"`
	FormattedPrice               string     `json:"formatted_price"`
	FormattedMarketCap           string     `json:"formatted_market_cap"`
}

func NewCoinResource(coin model.Coin) CoinResource {
	return CoinResource{
		ID:                           coin.CoinID,
		Symbol:                       coin.Symbol,
		Name:                         coin.Name,
		Image:                        coin.Image,
		CurrentPrice:                 coin.CurrentPrice.InexactFloat64(),
		MarketCap:                    coin.MarketCap,
		MarketCapRank:                coin.MarketCapRank,
		FullyDilutedValuation:        floatPtr(coin.FullyDilutedValuation),
		TotalVolume:                  floatPtr(coin.TotalVolume),
		High24h:                      floatPtr(coin.High24h),
		Low24h:                       floatPtr(coin.Low24h),
		PriceChange24h:               floatPtr(coin.PriceChange24h),
		PriceChangePercentage24h:     floatPtr(coin.PriceChangePercentage24h),
		MarketCapChange24h:           floatPtr(coin.MarketCapChange24h),
		MarketCapChangePercentage24h: floatPtr(coin.MarketCapChangePercentage24h),
		CirculatingSupply:            floatPtr(coin.CirculatingSupply),
		TotalSupply:                  floatPtr(coin.TotalSupply),
		MaxSupply:                    floatPtr(coin.MaxSupply),
		ATH:                          floatPtr(coin.ATH),
		ATHChangePercentage:          floatPtr(coin.ATHChangePercentage),
		ATHDate:                      coin.ATHDate,
		ATL:                          floatPtr(coin.ATL),
		ATLChangePercentage:          floatPtr(coin.ATLChangePercentage),
		ATLDate:                      coin.ATLDate,
		LastUpdated:                  coin.LastUpdated,
		FormattedPrice:               FormatPrice(coin.CurrentPrice),
		FormattedMarketCap:           FormatMarketCap(coin.MarketCap),
	}
}

func NewCoinResourceList(coins []model.Coin) []CoinResource {
	out := make([]CoinResource, 0, len(coins))
	for _, c := range coins {
		out = append(out, NewCoinResource(c))
	}
	return out
}

// FormatPrice renders a dollar price with thousands separators; sub-dollar
// assets get six decimal places so prices like $0.000057 stay visible.
func FormatPrice(price decimal.Decimal) string {
	f := price.InexactFloat64()
	if price.LessThan(decimal.NewFromInt(1)) {
		return "$" + humanize.FormatFloat("#,###.######", f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

// FormatMarketCap abbreviates with T/B/M suffixes at trillion/billion/million
// thresholds, a plain grouped integer below a million, "N/A" when unknown.
func FormatMarketCap(marketCap *int64) string {
	if marketCap == nil {
		return "N/A"
	}

	v := float64(*marketCap)
	switch {
	case v >= 1e12:
		return "$" + humanize.FormatFloat("#,###.##", v/1e12) + "T"
	case v >= 1e9:
		return "$" + humanize.FormatFloat("#,###.##", v/1e9) + "B"
	case v >= 1e6:
		return "$" + humanize.FormatFloat("#,###.##", v/1e6) + "M"
	}
	return "$" + humanize.Comma(*marketCap)
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
