package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs the filters that apply to the request source in order
// and stops at the first rejection.
func (c *Chain) Execute(ctx context.Context, req Request) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(req.Source) {
			continue
		}

		result := f.Check(ctx, req)
		if !result.Accepted {
			result.Filter = f.Name()
			zlog.Debug().Msgf("filter: rejected track=%s filter=%s code=%s", req.Track.ID, f.Name(), result.Code)
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
