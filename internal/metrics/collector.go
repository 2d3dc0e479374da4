package metrics

import (
	"context"
	"time"

	"static-gallery/internal/logging"
)

// StatsProvider reports the current size of a published gallery.
type StatsProvider interface {
	GetStats() Stats
}

// Stats are gallery totals as read back from the metadata caches.
type Stats struct {
	TotalFolders int
	TotalImages  int
	TotalTags    int
}

// Collector keeps the static_gallery_gallery_* gauges current while the
// preview server runs, so a rebuild in another process shows up on /metrics
// without restarting the server.
type Collector struct {
	provider StatsProvider
	interval time.Duration
}

// NewCollector returns a collector polling provider every interval. A
// non-positive interval makes Run refresh once and return.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval}
}

// Run refreshes the gauges immediately and then on every tick until ctx is
// done.
func (c *Collector) Run(ctx context.Context) {
	c.collect()
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	start := time.Now()
	stats := c.provider.GetStats()

	GalleryFoldersTotal.Set(float64(stats.TotalFolders))
	GalleryImagesTotal.Set(float64(stats.TotalImages))
	GalleryTagsTotal.Set(float64(stats.TotalTags))

	logging.Debug("Gallery totals refreshed in %v: %d folders, %d images, %d tags",
		time.Since(start).Round(time.Millisecond), stats.TotalFolders, stats.TotalImages, stats.TotalTags)
}
