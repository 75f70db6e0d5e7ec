package notify

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduper remembers signatures for a fixed window. Providers redeliver
// batches on timeouts; the window keeps a burn from being announced twice.
type Deduper struct {
	seen *cache.Cache
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{seen: cache.New(window, window)}
}

// Seen records signature and reports whether it was already recorded inside
// the window. Safe for concurrent use; exactly one caller wins a race.
func (d *Deduper) Seen(signature string) bool {
	return d.seen.Add(signature, struct{}{}, cache.DefaultExpiration) != nil
}

// Forget drops signature so a later delivery is dispatched again.
func (d *Deduper) Forget(signature string) {
	d.seen.Delete(signature)
}

func (d *Deduper) Len() int {
	return d.seen.ItemCount()
}
