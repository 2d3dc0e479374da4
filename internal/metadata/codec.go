package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"
	"static-gallery/internal/metrics"
)

// errMalformed marks a cache document that exists but cannot be decoded.
var errMalformed = errors.New("malformed cache document")

// Path returns the cache document path for folder.
func Path(folder string) string {
	return filepath.Join(folder, FileName)
}

// Load reads and upgrades the cache of folder. A missing document yields an
// empty cache. A malformed document is logged and also yields an empty cache,
// which the next Save replaces. A legacy sibling document is merged and then
// deleted. The returned error is reserved for I/O failures other than
// not-exist; the cache is still usable in that case.
func Load(folder string) (*FolderCache, error) {
	return load(folder, false)
}

// Peek reads the cache of folder without touching the legacy sibling or
// recording load metrics. It is meant for read-only consumers.
func Peek(folder string) (*FolderCache, error) {
	return load(folder, true)
}

func load(folder string, readOnly bool) (*FolderCache, error) {
	path := Path(folder)
	doc, err := readDocument(path)
	result := "current"
	switch {
	case errors.Is(err, os.ErrNotExist):
		result = "missing"
		doc, err = nil, nil
	case errors.Is(err, errMalformed):
		logging.Warn("Ignoring malformed metadata cache %s: %v", path, err)
		result = "malformed"
		doc, err = nil, nil
	case err != nil:
		return NewFolderCache(), fmt.Errorf("reading %s: %w", path, err)
	}

	var legacy document
	legacyPath := filepath.Join(folder, LegacyFileName)
	if !readOnly {
		var legacyErr error
		legacy, legacyErr = readDocument(legacyPath)
		switch {
		case legacyErr == nil:
			logging.Info("Migrating legacy metadata cache %s", legacyPath)
		case errors.Is(legacyErr, os.ErrNotExist):
		case errors.Is(legacyErr, errMalformed):
			logging.Warn("Ignoring malformed legacy cache %s: %v", legacyPath, legacyErr)
		default:
			logging.Warn("Failed to read legacy cache %s: %v", legacyPath, legacyErr)
		}
	}

	upgraded, applied := upgrade(doc, legacy)
	cache, decodeErr := bind(upgraded)
	if decodeErr != nil {
		logging.Warn("Ignoring metadata cache %s with invalid fields: %v", path, decodeErr)
		cache = NewFolderCache()
		result = "malformed"
	}

	switch {
	case result == "current" && len(applied) > 0, result == "missing" && legacy != nil:
		result = "migrated"
	}
	if result == "migrated" {
		logging.Debug("Upgraded %s: %s", path, strings.Join(applied, ", "))
	}

	if readOnly {
		return cache, nil
	}

	// The legacy file is gone once its contents live in memory; Save writes
	// them to the current document.
	if legacy != nil || fileExists(legacyPath) {
		if rmErr := os.Remove(legacyPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Warn("Failed to remove legacy cache %s: %v", legacyPath, rmErr)
		}
	}

	metrics.CacheLoadsTotal.WithLabelValues(result).Inc()
	return cache, nil
}

// Save persists cache into folder. An empty cache removes the document
// instead. The output is indented with a trailing newline and is only
// rewritten when its bytes change.
func Save(cache *FolderCache, folder string) error {
	path := Path(folder)

	if cache.Empty() {
		err := os.Remove(path)
		switch {
		case err == nil:
			logging.Info("Removed empty metadata cache %s", path)
			metrics.CacheWritesTotal.WithLabelValues("removed").Inc()
			return nil
		case errors.Is(err, os.ErrNotExist):
			return nil
		default:
			metrics.CacheWritesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}

	data, err := Encode(cache)
	if err != nil {
		metrics.CacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		logging.Debug("Metadata cache %s unchanged", path)
		return nil
	}

	if err := filesystem.WriteFileAtomic(path, bytes.NewReader(data)); err != nil {
		metrics.CacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logging.Debug("Wrote metadata cache %s (%d images)", path, len(cache.Images))
	metrics.CacheWritesTotal.WithLabelValues("written").Inc()
	return nil
}

// Remove deletes the cache documents of folder, current and legacy.
func Remove(folder string) error {
	var errs []error
	for _, name := range []string{FileName, LegacyFileName} {
		path := filepath.Join(folder, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", path, err))
			continue
		}
	}
	return errors.Join(errs...)
}

// Encode renders cache in its on-disk form.
func Encode(cache *FolderCache) ([]byte, error) {
	cache.Version = SchemaVersion
	if cache.Images == nil {
		cache.Images = make(map[string]*ImageRecord)
	}
	if cache.Subfolders == nil {
		cache.Subfolders = []SubfolderRecord{}
	}
	for _, rec := range cache.Images {
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(cache); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readDocument decodes path into a generic document. Numbers are kept as
// json.Number so EXIF and XMP values survive a load/save cycle verbatim.
func readDocument(path string) (document, error) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", errMalformed)
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is not an object", errMalformed)
	}
	return doc, nil
}

// bind converts an upgraded document into a FolderCache.
func bind(doc document) (*FolderCache, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	cache := NewFolderCache()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(cache); err != nil {
		return nil, err
	}
	if cache.Images == nil {
		cache.Images = make(map[string]*ImageRecord)
	}
	for name, rec := range cache.Images {
		if rec == nil {
			delete(cache.Images, name)
		}
	}
	return cache, nil
}

func numberEquals(v any, want int) bool {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return err == nil && i == int64(want)
	case float64:
		return n == float64(want)
	case int:
		return n == want
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
