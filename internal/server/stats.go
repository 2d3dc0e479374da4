package server

import (
	"io/fs"
	"path/filepath"
	"strings"

	"static-gallery/internal/logging"
	"static-gallery/internal/metadata"
	"static-gallery/internal/metrics"
	"static-gallery/internal/tags"
)

// GalleryStats reads the metadata caches under a gallery root. It implements
// metrics.StatsProvider.
type GalleryStats struct {
	root string
}

// NewGalleryStats returns a stats provider for root.
func NewGalleryStats(root string) *GalleryStats {
	return &GalleryStats{root: root}
}

// GetStats counts folders with a cache, cached images and distinct tags.
// Caches are read with metadata.Peek so a concurrent build is never disturbed.
func (g *GalleryStats) GetStats() metrics.Stats {
	var stats metrics.Stats
	all := tags.NewSet()

	err := filepath.WalkDir(g.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != g.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		cache, err := metadata.Peek(path)
		if err != nil || cache.Empty() {
			return nil
		}
		stats.TotalFolders++
		stats.TotalImages += len(cache.Images)
		for _, rec := range cache.Images {
			all.Add(rec.Tags...)
		}
		return nil
	})
	if err != nil {
		logging.Warn("Failed to collect gallery stats under %s: %v", g.root, err)
	}

	stats.TotalTags = len(all)
	return stats
}
