package cache

import (
	"encoding/json"
	"sort"
	"time"
)

// EntryStats describes one cached entry.
type EntryStats struct {
	Key        string        `json:"key"`
	Age        time.Duration `json:"-"`
	AgeSeconds float64       `json:"ageSeconds"`
	// Size is the length of the value's JSON encoding, or -1 when the value
	// cannot be encoded.
	Size int `json:"size"`
}

// Stats is a point-in-time snapshot of the cache for observability.
type Stats struct {
	TotalEntries int          `json:"totalEntries"`
	Hits         int64        `json:"hits"`
	Misses       int64        `json:"misses"`
	StaleServed  int64        `json:"staleServed"`
	Entries      []EntryStats `json:"entries"`
}

// Stats reports the current entries, sorted by key. It does not modify the cache.
func (c *ReadThroughCache) Stats() Stats {
	c.mu.RLock()
	snapshot := make(map[string]entry, len(c.entries))
	for k, e := range c.entries {
		snapshot[k] = e
	}
	c.mu.RUnlock()

	now := c.now()
	stats := Stats{
		TotalEntries: len(snapshot),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		StaleServed:  c.staleServed.Load(),
		Entries:      make([]EntryStats, 0, len(snapshot)),
	}
	for key, e := range snapshot {
		age := now.Sub(e.storedAt)
		stats.Entries = append(stats.Entries, EntryStats{
			Key:        key,
			Age:        age,
			AgeSeconds: age.Seconds(),
			Size:       payloadSize(e.value),
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Key < stats.Entries[j].Key
	})
	return stats
}

func payloadSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return -1
	}
	return len(data)
}
