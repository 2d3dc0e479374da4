package metadata

import "sort"

const (
	// FileName is the per-folder cache document.
	FileName = ".metadata.json"
	// LegacyFileName is the cache document written by older releases.
	LegacyFileName = ".sizelist.json"
	// SchemaVersion is stamped on every document written by Save.
	SchemaVersion = 2
)

// ImageRecord is the cached metadata for one image. W and H are nil when the
// source could not be decoded.
type ImageRecord struct {
	W     *int           `json:"w"`
	H     *int           `json:"h"`
	Tags  []string       `json:"tags"`
	Exif  map[string]any `json:"exifdata"`
	XMP   map[string]any `json:"xmp"`
	Src   string         `json:"src"`
	MSrc  string         `json:"msrc"`
	Name  string         `json:"name"`
	Title string         `json:"title"`
	TIFF  string         `json:"tiff,omitempty"`
	Raw   string         `json:"raw,omitempty"`
}

// HasDimensions reports whether the source image was readable.
func (r *ImageRecord) HasDimensions() bool {
	return r.W != nil && r.H != nil
}

// SubfolderRecord links a folder page to one of its child folders.
type SubfolderRecord struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Thumb    string `json:"thumb,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

// FolderCache is the persisted metadata of one directory.
type FolderCache struct {
	Version    int                     `json:"version"`
	Images     map[string]*ImageRecord `json:"images"`
	Subfolders []SubfolderRecord       `json:"subfolders"`
}

// NewFolderCache returns an empty cache at the current schema version.
func NewFolderCache() *FolderCache {
	return &FolderCache{
		Version:    SchemaVersion,
		Images:     make(map[string]*ImageRecord),
		Subfolders: []SubfolderRecord{},
	}
}

// Empty reports whether the cache holds no images.
func (c *FolderCache) Empty() bool {
	return c == nil || len(c.Images) == 0
}

// Names returns the cached image filenames in lexical order.
func (c *FolderCache) Names() []string {
	names := make([]string, 0, len(c.Images))
	for name := range c.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
