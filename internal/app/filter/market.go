package filter

import "context"

// MarketFilter rejects tracks that cannot be played in the configured market.
// Tracks without region information pass.
type MarketFilter struct {
	market string
}

// NewMarketFilter creates a new MarketFilter with the specified market.
func NewMarketFilter(market string) *MarketFilter {
	return &MarketFilter{market: market}
}

func (f *MarketFilter) Name() string {
	return "market_filter"
}

func (f *MarketFilter) Description() string {
	return "Rejects tracks that are not playable in the configured market"
}

func (f *MarketFilter) ReturnCodes() []string {
	return []string{"market_restriction"}
}

func (f *MarketFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *MarketFilter) AppliesTo(source Source) bool {
	return true
}

func (f *MarketFilter) Check(ctx context.Context, req Request) Result {
	if f.market == "" {
		return Accept()
	}
	if !req.Track.IsAvailableInMarket(f.market) {
		return Reject("market_restriction")
	}
	return Accept()
}
