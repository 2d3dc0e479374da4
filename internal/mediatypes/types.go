package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileType represents the role of a directory entry in a gallery folder.
type FileType string

const (
	// FileTypeFolder represents a directory.
	FileTypeFolder FileType = "folder"
	// FileTypeImage represents a gallery image.
	FileTypeImage FileType = "image"
	// FileTypeSidecar represents an XMP sidecar next to an image.
	FileTypeSidecar FileType = "sidecar"
	// FileTypeInfo represents a folder description text file.
	FileTypeInfo FileType = "info"
	// FileTypeLicense represents a folder LICENSE file.
	FileTypeLicense FileType = "license"
	// FileTypeOther represents any other file.
	FileTypeOther FileType = "other"
)

const (
	// InfoFileName is the per-folder description file.
	InfoFileName = "info"
	// LicenseFileName is the per-folder licence file.
	LicenseFileName = "LICENSE"
	// SidecarExtension is appended to an image filename to locate its sidecar.
	SidecarExtension = ".xmp"
)

// DefaultImageExtensions are used when no extensions are configured.
var DefaultImageExtensions = []string{".jpg", ".jpeg"}

// RawExtensions are sibling formats linked from an image record.
var RawExtensions = []string{
	".3fr", ".ari", ".arw", ".bay", ".braw", ".crw", ".cr2", ".cr3", ".cap",
	".data", ".dcs", ".dcr", ".dng", ".drf", ".eip", ".erf", ".fff", ".gpr",
	".iiq", ".k25", ".kdc", ".mdc", ".mef", ".mos", ".mrw", ".nef", ".nrw",
	".obm", ".orf", ".pef", ".ptx", ".pxn", ".r3d", ".raf", ".raw", ".rwl",
	".rw2", ".rwz", ".sr2", ".srf", ".srw", ".tif", ".tiff", ".x3f",
}

// nonContentNames are generated or site-level files never treated as content.
var nonContentNames = map[string]bool{
	"index.html":    true,
	"license.html":  true,
	"manifest.json": true,
	"robots.txt":    true,
}

// MimeTypes maps image extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".xmp":  "application/rdf+xml",
	".json": "application/json",
}

// ExtensionSet is a set of lower-case extensions including the leading dot.
type ExtensionSet map[string]bool

// NewExtensionSet normalizes exts into a set. Missing dots are added.
func NewExtensionSet(exts []string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = NormalizeExtension(ext)
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

// NormalizeExtension lower-cases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Matches reports whether name has an extension in the set (case-insensitive).
func (s ExtensionSet) Matches(name string) bool {
	return s[strings.ToLower(filepath.Ext(name))]
}

// Sorted returns the extensions in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsNonContent reports whether name is hidden or a generated site file.
func IsNonContent(name string) bool {
	return strings.HasPrefix(name, ".") || nonContentNames[name]
}

// Classify returns the FileType of a non-directory entry.
func Classify(name string, images ExtensionSet) FileType {
	switch {
	case images.Matches(name):
		return FileTypeImage
	case strings.EqualFold(filepath.Ext(name), SidecarExtension):
		return FileTypeSidecar
	case name == InfoFileName:
		return FileTypeInfo
	case name == LicenseFileName:
		return FileTypeLicense
	default:
		return FileTypeOther
	}
}

// IsTIFF reports whether ext is one of the TIFF extensions.
func IsTIFF(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".tif" || ext == ".tiff"
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
