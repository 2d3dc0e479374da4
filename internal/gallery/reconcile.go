package gallery

import (
	"path/filepath"
	"strings"

	"static-gallery/internal/logging"
	"static-gallery/internal/media"
	"static-gallery/internal/mediatypes"
	"static-gallery/internal/metadata"
	"static-gallery/internal/metrics"
)

// imageAction is what reconciliation did for one image.
type imageAction string

const (
	actionCached  imageAction = "cached"
	actionInspect imageAction = "inspected"
	actionSidecar imageAction = "sidecar_refreshed"
)

// newImageRecord builds the cache entry of a freshly inspected image. Every
// field is set here; URL fields are filled in by linkRecord.
func newImageRecord(name string, info media.Info) *metadata.ImageRecord {
	tagList := info.Tags
	if tagList == nil {
		tagList = []string{}
	}
	return &metadata.ImageRecord{
		W:     info.Width,
		H:     info.Height,
		Tags:  tagList,
		Exif:  info.Exif,
		XMP:   info.XMP,
		Name:  name,
		Title: info.Title,
	}
}

// reconcileImage brings the cache entry of the image name in dir up to date
// and returns it. An entry is inspected when it is missing or when metadata
// re-reading is forced; otherwise it is reused, with only its tags refreshed
// from the sidecar when requested. A sidecar that has disappeared hands the
// tags back to the XMP packet embedded in the image.
func (w *Walker) reconcileImage(cache *metadata.FolderCache, dir, name string) (*metadata.ImageRecord, imageAction) {
	path := filepath.Join(dir, name)
	rec, ok := cache.Images[name]

	action := actionCached
	switch {
	case !ok || w.opts.RereadMetadata:
		logging.Debug("Inspecting %s", path)
		rec = newImageRecord(name, media.Inspect(path))
		action = actionInspect
	case w.opts.RereadSidecar:
		if sidecarTags, found := media.SidecarTags(path); found {
			rec.Tags = sidecarTags
		} else {
			rec.Tags = media.EmbeddedTags(path)
		}
		action = actionSidecar
	}

	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.Name == "" {
		rec.Name = name
	}
	cache.Images[name] = rec
	metrics.WalkerImagesTotal.WithLabelValues(string(action)).Inc()
	return rec, action
}

// linkRecord refreshes the derived URL fields of rec. siblings holds every
// entry name of the folder and is used to find RAW and TIFF companions.
func (w *Walker) linkRecord(rec *metadata.ImageRecord, rel, name string, siblings map[string]string) {
	rec.Src = w.opts.imageURL(rel, name)
	rec.MSrc = w.opts.thumbnailURL(rel, name)
	rec.TIFF, rec.Raw = "", ""

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range mediatypes.RawExtensions {
		sibling, ok := siblings[strings.ToLower(stem+ext)]
		if !ok || sibling == name {
			continue
		}
		u := w.opts.imageURL(rel, sibling)
		if mediatypes.IsTIFF(ext) {
			if rec.TIFF == "" {
				rec.TIFF = u
			}
			continue
		}
		if rec.Raw == "" {
			logging.Debug("Found RAW companion %s for %s", sibling, name)
			rec.Raw = u
		}
	}
}

// evict deletes every cache entry whose image is not in present and returns
// the number of entries removed.
func evict(cache *metadata.FolderCache, present map[string]bool, dir string) int {
	removed := 0
	for _, name := range cache.Names() {
		if present[name] {
			continue
		}
		logging.Info("Evicting %s from the metadata cache of %s", name, dir)
		delete(cache.Images, name)
		removed++
	}
	if removed > 0 {
		metrics.CacheEntriesEvicted.Add(float64(removed))
	}
	return removed
}
