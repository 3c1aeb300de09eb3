package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"etfRotationBot/internal/domain"
)

func TestCache_MemoizesByLengthAndLastClose(t *testing.T) {
	cache := NewCache()
	bars := barsFromCloses(1, 2, 3, 4, 5)

	calls := 0
	compute := func() []float64 {
		calls++
		return SMA(bars, 2)
	}

	first := cache.Get(KindSMA, 2, bars, compute)
	second := cache.Get(KindSMA, 2, bars, compute)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	// A different period or kind is a different entry.
	cache.Get(KindSMA, 3, bars, compute)
	cache.Get(KindROC, 2, bars, compute)
	assert.Equal(t, 3, calls)

	// Growing the series invalidates by length.
	grown := append(append([]domain.Bar{}, bars...), domain.Bar{Close: 6})
	cache.SMA(grown, 2)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 4, Entries: 4}, cache.Stats())
}

func TestCache_HelpersMatchDirectCalls(t *testing.T) {
	cache := NewCache()
	bars := wavySeries(80)

	assert.Equal(t, SMA(bars, 20), cache.SMA(bars, 20))
	assert.Equal(t, ROC(bars, 10), cache.ROC(bars, 10))
	assert.Equal(t, RollingStdDev(bars, 20), cache.StdDev(bars, 20))
	assert.Equal(t, ATR(bars, 14), cache.ATR(bars, 14))
	assert.Equal(t, 4, cache.Len())
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache()
	bars := barsFromCloses(1, 2, 3)
	cache.SMA(bars, 2)
	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, CacheStats{}, cache.Stats())

	// Same length and last close from a different dataset would collide
	// without the clear; after it, the value is recomputed.
	other := barsFromCloses(10, 20, 3)
	assert.Equal(t, SMA(other, 2), cache.SMA(other, 2))
}

func TestCache_NilComputesWithoutStoring(t *testing.T) {
	var cache *Cache
	bars := barsFromCloses(1, 2, 3)

	assert.Equal(t, SMA(bars, 2), cache.SMA(bars, 2))
	assert.Equal(t, 0, cache.Len())
	cache.Clear()
}
