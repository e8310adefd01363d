package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(connStr string, maxOpenConns, maxIdleConns int) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresAdapter{db: db}, nil
}

func (a *PostgresAdapter) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS cryptocurrencies (
		id SERIAL PRIMARY KEY,
		coin_id VARCHAR(100) NOT NULL UNIQUE,
		symbol VARCHAR(20) NOT NULL,
		name VARCHAR(100) NOT NULL,
		image TEXT,
		current_price NUMERIC(30,10) NOT NULL,
		market_cap BIGINT,
		market_cap_rank INTEGER,
		fully_diluted_valuation NUMERIC(30,2),
		total_volume NUMERIC(30,2),
		high_24h NUMERIC(30,10),
		low_24h NUMERIC(30,10),
		price_change_24h NUMERIC(30,10),
		price_change_percentage_24h NUMERIC(12,4),
		market_cap_change_24h NUMERIC(30,2),
		market_cap_change_percentage_24h NUMERIC(12,4),
		circulating_supply NUMERIC(30,2),
		total_supply NUMERIC(30,2),
		max_supply NUMERIC(30,2),
		ath NUMERIC(30,10),
		ath_change_percentage NUMERIC(12,4),
		ath_date TIMESTAMPTZ,
		atl NUMERIC(30,10),
		atl_change_percentage NUMERIC(12,4),
		atl_date TIMESTAMPTZ,
		last_updated TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_cryptocurrencies_market_cap_rank ON cryptocurrencies(market_cap_rank);
	CREATE INDEX IF NOT EXISTS idx_cryptocurrencies_symbol ON cryptocurrencies(symbol);
	CREATE INDEX IF NOT EXISTS idx_cryptocurrencies_last_updated ON cryptocurrencies(last_updated);
	`
	_, err := a.db.ExecContext(ctx, query)
	return err
}

const coinColumns = `coin_id, symbol, name, image, current_price, market_cap, market_cap_rank,
	fully_diluted_valuation, total_volume, high_24h, low_24h,
	price_change_24h, price_change_percentage_24h,
	market_cap_change_24h, market_cap_change_percentage_24h,
	circulating_supply, total_supply, max_supply,
	ath, ath_change_percentage, ath_date,
	atl, atl_change_percentage, atl_date,
	last_updated, created_at, updated_at`

// UpsertCoin inserts the row or fully overwrites an existing one. The unique
// index on coin_id makes this atomic per key, so concurrent runs cannot
// produce duplicate rows.
func (a *PostgresAdapter) UpsertCoin(ctx context.Context, coin model.Coin) error {
	query := `
	INSERT INTO cryptocurrencies (
		coin_id, symbol, name, image, current_price, market_cap, market_cap_rank,
		fully_diluted_valuation, total_volume, high_24h, low_24h,
		price_change_24h, price_change_percentage_24h,
		market_cap_change_24h, market_cap_change_percentage_24h,
		circulating_supply, total_supply, max_supply,
		ath, ath_change_percentage, ath_date,
		atl, atl_change_percentage, atl_date,
		last_updated
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
	)
	ON CONFLICT (coin_id) DO UPDATE SET
		symbol = EXCLUDED.symbol,
		name = EXCLUDED.name,
		image = EXCLUDED.image,
		current_price = EXCLUDED.current_price,
		market_cap = EXCLUDED.market_cap,
		market_cap_rank = EXCLUDED.market_cap_rank,
		fully_diluted_valuation = EXCLUDED.fully_diluted_valuation,
		total_volume = EXCLUDED.total_volume,
		high_24h = EXCLUDED.high_24h,
		low_24h = EXCLUDED.low_24h,
		price_change_24h = EXCLUDED.price_change_24h,
		price_change_percentage_24h = EXCLUDED.price_change_percentage_24h,
		market_cap_change_24h = EXCLUDED.market_cap_change_24h,
		market_cap_change_percentage_24h = EXCLUDED.market_cap_change_percentage_24h,
		circulating_supply = EXCLUDED.circulating_supply,
		total_supply = EXCLUDED.total_supply,
		max_supply = EXCLUDED.max_supply,
		ath = EXCLUDED.ath,
		ath_change_percentage = EXCLUDED.ath_change_percentage,
		ath_date = EXCLUDED.ath_date,
		atl = EXCLUDED.atl,
		atl_change_percentage = EXCLUDED.atl_change_percentage,
		atl_date = EXCLUDED.atl_date,
		last_updated = EXCLUDED.last_updated,
		updated_at = NOW()
	`

	_, err := a.db.ExecContext(ctx, query,
		coin.CoinID,
		coin.Symbol,
		coin.Name,
		coin.Image,
		coin.CurrentPrice.String(),
		coin.MarketCap,
		coin.MarketCapRank,
		decimalArg(coin.FullyDilutedValuation),
		decimalArg(coin.TotalVolume),
		decimalArg(coin.High24h),
		decimalArg(coin.Low24h),
		decimalArg(coin.PriceChange24h),
		decimalArg(coin.PriceChangePercentage24h),
		decimalArg(coin.MarketCapChange24h),
		decimalArg(coin.MarketCapChangePercentage24h),
		decimalArg(coin.CirculatingSupply),
		decimalArg(coin.TotalSupply),
		decimalArg(coin.MaxSupply),
		decimalArg(coin.ATH),
		decimalArg(coin.ATHChangePercentage),
		coin.ATHDate,
		decimalArg(coin.ATL),
		decimalArg(coin.ATLChangePercentage),
		coin.ATLDate,
		coin.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert coin %s: %w", coin.CoinID, err)
	}
	return nil
}

func (a *PostgresAdapter) GetTopByRank(ctx context.Context, limit int) ([]model.Coin, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM cryptocurrencies
	WHERE market_cap_rank IS NOT NULL
	ORDER BY market_cap_rank ASC
	LIMIT $1`, coinColumns)

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top coins: %w", err)
	}
	defer rows.Close()

	return collectCoins(rows)
}

func (a *PostgresAdapter) GetByCoinID(ctx context.Context, coinID string) (*model.Coin, error) {
	query := fmt.Sprintf(`SELECT %s FROM cryptocurrencies WHERE coin_id = $1`, coinColumns)

	row := a.db.QueryRowContext(ctx, query, coinID)
	coin, err := scanCoin(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coin %s: %w", coinID, err)
	}
	return coin, nil
}

func (a *PostgresAdapter) Search(ctx context.Context, query string, limit int) ([]model.Coin, error) {
	q := fmt.Sprintf(`
	SELECT %s FROM cryptocurrencies
	WHERE name ILIKE '%%' || $1 || '%%'
	   OR symbol ILIKE '%%' || $1 || '%%'
	   OR coin_id ILIKE '%%' || $1 || '%%'
	ORDER BY market_cap_rank ASC NULLS LAST
	LIMIT $2`, coinColumns)

	rows, err := a.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search coins: %w", err)
	}
	defer rows.Close()

	return collectCoins(rows)
}

func (a *PostgresAdapter) GetStats(ctx context.Context) (*model.MarketStats, error) {
	query := `
	SELECT COUNT(*), MAX(last_updated), MAX(market_cap), AVG(current_price)
	FROM cryptocurrencies`

	var (
		count       int
		lastUpdated sql.NullTime
		maxCap      sql.NullInt64
		avgPrice    sql.NullString
	)

	if err := a.db.QueryRowContext(ctx, query).Scan(&count, &lastUpdated, &maxCap, &avgPrice); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	stats := &model.MarketStats{TotalCryptocurrencies: count}
	if lastUpdated.Valid {
		t := lastUpdated.Time.UTC()
		stats.LastDataUpdate = &t
	}
	if maxCap.Valid {
		v := maxCap.Int64
		stats.HighestMarketCap = &v
	}
	if avgPrice.Valid {
		avg, err := decimal.NewFromString(avgPrice.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse average price: %w", err)
		}
		stats.AveragePrice = avg.Round(2).InexactFloat64()
	}

	return stats, nil
}

func (a *PostgresAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoin(row rowScanner) (*model.Coin, error) {
	var (
		coin     model.Coin
		image    sql.NullString
		price    string
		mcap     sql.NullInt64
		rank     sql.NullInt64
		decimals [15]sql.NullString
		athDate  sql.NullTime
		atlDate  sql.NullTime
		lastUpd  sql.NullTime
	)

	err := row.Scan(
		&coin.CoinID, &coin.Symbol, &coin.Name, &image, &price, &mcap, &rank,
		&decimals[0], &decimals[1], &decimals[2], &decimals[3],
		&decimals[4], &decimals[5], &decimals[6], &decimals[7],
		&decimals[8], &decimals[9], &decimals[10],
		&decimals[11], &decimals[12], &athDate,
		&decimals[13], &decimals[14], &atlDate,
		&lastUpd, &coin.CreatedAt, &coin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if image.Valid {
		coin.Image = &image.String
	}
	if coin.CurrentPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("failed to parse current_price for %s: %w", coin.CoinID, err)
	}
	if mcap.Valid {
		coin.MarketCap = &mcap.Int64
	}
	if rank.Valid {
		r := int(rank.Int64)
		coin.MarketCapRank = &r
	}

	targets := []**decimal.Decimal{
		&coin.FullyDilutedValuation, &coin.TotalVolume, &coin.High24h, &coin.Low24h,
		&coin.PriceChange24h, &coin.PriceChangePercentage24h,
		&coin.MarketCapChange24h, &coin.MarketCapChangePercentage24h,
		&coin.CirculatingSupply, &coin.TotalSupply, &coin.MaxSupply,
		&coin.ATH, &coin.ATHChangePercentage,
		&coin.ATL, &coin.ATLChangePercentage,
	}
	for i, ns := range decimals {
		if !ns.Valid {
			continue
		}
		d, err := decimal.NewFromString(ns.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decimal column for %s: %w", coin.CoinID, err)
		}
		*targets[i] = &d
	}

	coin.ATHDate = nullTimePtr(athDate)
	coin.ATLDate = nullTimePtr(atlDate)
	coin.LastUpdated = nullTimePtr(lastUpd)
	coin.CreatedAt = coin.CreatedAt.UTC()
	coin.UpdatedAt = coin.UpdatedAt.UTC()

	return &coin, nil
}

func collectCoins(rows *sql.Rows) ([]model.Coin, error) {
	var coins []model.Coin
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin row: %w", err)
		}
		coins = append(coins, *coin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coin rows: %w", err)
	}
	return coins, nil
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
