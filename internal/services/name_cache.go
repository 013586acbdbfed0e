package services

import "time"

// DefaultNameTTL is how long a fetched list of watchlist names is served
// before the next read goes back to the broker
const DefaultNameTTL = 750 * time.Millisecond

// nameCache holds the last fetched watchlist names until expiresAt.
// Writes through the collection never touch it; only expiry does.
type nameCache struct {
	ttl       time.Duration
	value     []string
	expiresAt time.Time
	fetched   bool
}

// getOrRefresh returns the cached names, calling fetch first when nothing
// was fetched yet or when now is past the expiry.
func (c *nameCache) getOrRefresh(now time.Time, fetch func() ([]string, error)) ([]string, error) {
	if c.fetched && !c.expiresAt.Before(now) {
		return c.value, nil
	}

	names, err := fetch()
	if err != nil {
		return nil, err
	}

	c.value = names
	c.expiresAt = now.Add(c.ttl)
	c.fetched = true
	return c.value, nil
}
