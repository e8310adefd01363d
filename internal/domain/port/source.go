package port

import (
	"context"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// MarketSourcePort pulls the current top-of-market page from the external
// data source. The source is untrusted: callers must expect the whole call
// to fail and individual snapshots to be malformed.
type MarketSourcePort interface {
	FetchTopMarkets(ctx context.Context) ([]model.MarketSnapshot, error)
}
