package alert

import (
	"sync"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// priceCache memoizes quote fetches within a single pass so many rules on
// the same ticker cost one provider call. Errors are cached too, so a dead
// ticker fails every rule quickly instead of retrying per rule.
type priceCache struct {
	mu      sync.Mutex
	entries map[string]*priceEntry
}

type priceEntry struct {
	once  sync.Once
	quote *models.Quote
	err   error
}

func newPriceCache() *priceCache {
	return &priceCache{entries: make(map[string]*priceEntry)}
}

// get returns the cached result for ticker, invoking fetch exactly once per
// ticker per pass. Concurrent callers for the same ticker block on the
// first fetch.
func (c *priceCache) get(ticker string, fetch func() (*models.Quote, error)) (*models.Quote, error) {
	c.mu.Lock()
	entry, ok := c.entries[ticker]
	if !ok {
		entry = &priceEntry{}
		c.entries[ticker] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.quote, entry.err = fetch()
	})
	return entry.quote, entry.err
}
