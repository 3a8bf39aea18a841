package analytics

import (
	"fmt"

	"github.com/jellydator/ttlcache/v3"

	"github.com/NotHilal/PLM-Hackaton/store"
)

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// cached returns the memoized section of a snapshot, computing it on a miss.
// Two concurrent misses may both compute; the results are identical.
func cached[T any](p *Provider, snap *store.Snapshot, section string, compute func() T) T {
	if v, ok := p.getCached(snap.ID, section); ok {
		p.cfg.Metrics.CacheRequestsTotal.WithLabelValues(cacheHit).Inc()
		return v.(T)
	}
	p.cfg.Metrics.CacheRequestsTotal.WithLabelValues(cacheMiss).Inc()
	v := compute()
	p.setCached(snap.ID, section, v)
	return v
}

func (p *Provider) getCached(snapshotID, section string) (any, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	item := p.cache.Get(sectionCacheKey(snapshotID, section))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// setCached drops every entry of older snapshots the first time a new
// snapshot is stored.
func (p *Provider) setCached(snapshotID, section string, v any) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if p.cachedID != snapshotID {
		if p.cachedID != "" {
			p.log.Debug("analytics: snapshot changed, clearing cache", "from", p.cachedID, "to", snapshotID)
		}
		p.cache.DeleteAll()
		p.cachedID = snapshotID
	}
	p.cache.Set(sectionCacheKey(snapshotID, section), v, ttlcache.DefaultTTL)
}

func sectionCacheKey(snapshotID, section string) string {
	return fmt.Sprintf("%s:%s", snapshotID, section)
}
