package indicators

import "etfRotationBot/internal/domain"

// cacheKey identifies a computed series. Within one backtest the input only
// grows by appending bars, so length plus last close stands in for the series.
type cacheKey struct {
	kind      Kind
	period    int
	length    int
	lastClose float64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache memoizes indicator series for a single backtest run.
// A Cache is not safe for concurrent use; each run owns its own.
// A nil *Cache is valid and simply computes every request.
type Cache struct {
	entries map[cacheKey][]float64
	hits    int
	misses  int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey][]float64)}
}

// Get returns the cached series for (kind, period, bars) or computes and stores it.
func (c *Cache) Get(kind Kind, period int, bars []domain.Bar, compute func() []float64) []float64 {
	if c == nil {
		return compute()
	}
	key := cacheKey{kind: kind, period: period, length: len(bars)}
	if len(bars) > 0 {
		key.lastClose = bars[len(bars)-1].Close
	}
	if v, ok := c.entries[key]; ok {
		c.hits++
		return v
	}
	c.misses++
	v := compute()
	c.entries[key] = v
	return v
}

// SMA returns the cached simple moving average.
func (c *Cache) SMA(bars []domain.Bar, period int) []float64 {
	return c.Get(KindSMA, period, bars, func() []float64 { return SMA(bars, period) })
}

// ROC returns the cached rate of change.
func (c *Cache) ROC(bars []domain.Bar, period int) []float64 {
	return c.Get(KindROC, period, bars, func() []float64 { return ROC(bars, period) })
}

// StdDev returns the cached rolling standard deviation.
func (c *Cache) StdDev(bars []domain.Bar, period int) []float64 {
	return c.Get(KindStdDev, period, bars, func() []float64 { return RollingStdDev(bars, period) })
}

// ATR returns the cached average true range.
func (c *Cache) ATR(bars []domain.Bar, period int) []float64 {
	return c.Get(KindATR, period, bars, func() []float64 { return ATR(bars, period) })
}

// Clear drops every entry. Call it between independent runs that share a cache.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.entries = make(map[cacheKey][]float64)
	c.hits, c.misses = 0, 0
}

// Len returns the number of cached series.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
