package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"
	"static-gallery/internal/mediatypes"
	"static-gallery/internal/metrics"
)

// Info is everything the inspector learns about one image.
type Info struct {
	// Width and Height are display dimensions, swapped for images rotated
	// by 90 degrees. Both are nil when the image could not be decoded.
	Width  *int
	Height *int
	Tags   []string
	Exif   map[string]any
	XMP    map[string]any
	Title  string
}

// SidecarPath returns the XMP sidecar location for an image.
func SidecarPath(imagePath string) string {
	return imagePath + mediatypes.SidecarExtension
}

// Inspect reads dimensions, EXIF and XMP metadata from the image at path.
// It never fails: problems are logged and reflected as missing fields, so an
// unreadable image yields nil dimensions and no tags.
func Inspect(path string) (info Info) {
	start := time.Now()
	info = Info{Tags: []string{}, Title: titleFromName(path)}

	defer func() {
		metrics.InspectorDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			logging.Error("Panic while inspecting %s: %v", path, r)
			metrics.InspectorErrors.Inc()
			info = Info{Tags: []string{}, Title: titleFromName(path)}
		}
	}()

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("Failed to open image %s: %v", path, err)
		metrics.InspectorErrors.Inc()
		return info
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		logging.Error("Failed to stat image %s: %v", path, err)
		metrics.InspectorErrors.Inc()
		return info
	}
	section := func() io.Reader { return io.NewSectionReader(file, 0, stat.Size()) }

	dims, err := decodeDimensions(section())
	if err != nil {
		logging.Error("Failed to read image dimensions of %s: %v", path, err)
		metrics.InspectorErrors.Inc()
		return info
	}
	width, height := dims.Width, dims.Height

	exifData, err := ReadExif(section())
	if err != nil {
		logging.Warn("Failed to read EXIF data of %s: %v", path, err)
	}
	if exifData != nil {
		info.Exif = exifData
		if swapsDimensions(exifOrientation(exifData)) {
			logging.Debug("Image %s is rotated, swapping dimensions", path)
			width, height = height, width
		}
	}
	info.Width, info.Height = &width, &height

	doc, fromSidecar := readSidecar(path)
	if !fromSidecar {
		doc = readEmbeddedXMP(path, section())
	}
	if doc != nil {
		info.XMP = doc
		info.Tags = XMPTags(doc)
		if title := XMPTitle(doc); title != "" {
			info.Title = title
		}
	}

	logging.Debug("Inspected %s: %dx%d, %d tags", path, width, height, len(info.Tags))
	return info
}

// SidecarTags re-reads only the tags of the sidecar next to imagePath. The
// boolean is false when there is no readable sidecar.
func SidecarTags(imagePath string) ([]string, bool) {
	doc, ok := readSidecar(imagePath)
	if !ok {
		return nil, false
	}
	return XMPTags(doc), true
}

// EmbeddedTags reads the tags of the XMP packet inside the image itself,
// ignoring any sidecar. An image without a packet has no tags.
func EmbeddedTags(imagePath string) []string {
	file, err := filesystem.OpenWithRetry(imagePath, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Failed to open image %s: %v", imagePath, err)
		return []string{}
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", imagePath, err)
		}
	}()

	doc := readEmbeddedXMP(imagePath, file)
	if doc == nil {
		return []string{}
	}
	return XMPTags(doc)
}

func readSidecar(imagePath string) (map[string]any, bool) {
	sidecar := SidecarPath(imagePath)
	data, err := filesystem.ReadFileWithRetry(sidecar, filesystem.DefaultRetryConfig())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to read sidecar %s: %v", sidecar, err)
		}
		return nil, false
	}

	doc, err := ParseXMP(data)
	if err != nil {
		logging.Warn("Ignoring malformed sidecar %s: %v", sidecar, err)
		return nil, false
	}
	return doc, true
}

func readEmbeddedXMP(path string, r io.Reader) map[string]any {
	packet, err := ExtractXMP(r)
	if err != nil {
		if !errors.Is(err, errNoXMP) {
			logging.Warn("Failed to scan %s for XMP: %v", path, err)
		}
		return nil
	}

	doc, err := ParseXMP(packet)
	if err != nil {
		logging.Warn("Ignoring malformed XMP packet in %s: %v", path, err)
		return nil
	}
	return doc
}

func titleFromName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// String implements fmt.Stringer for log output.
func (i Info) String() string {
	if i.Width == nil || i.Height == nil {
		return fmt.Sprintf("unreadable (%d tags)", len(i.Tags))
	}
	return fmt.Sprintf("%dx%d (%d tags)", *i.Width, *i.Height, len(i.Tags))
}
