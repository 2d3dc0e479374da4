package media

import (
	"fmt"
	"image"
	"io"
	"math"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height decoded at full size
	// for a thumbnail. Larger images are downscaled first.
	MaxImageDimension = 8192

	// MaxImagePixels is the maximum total pixels (width * height) decoded at
	// full size. A 50MP image would be ~50,000,000 pixels, ~200MB in RGBA.
	MaxImagePixels = 40_000_000
)

// LoadImageConstrained loads an image with EXIF orientation applied,
// downscaling if it exceeds size limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		return nil, err
	}

	width, height := dimensions.Width, dimensions.Height
	pixels := width * height

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if width <= maxDimension && height <= maxDimension && pixels <= maxPixels {
		return img, nil
	}

	// Work on the oriented bounds, which may be swapped
	b := img.Bounds()
	targetWidth, targetHeight := b.Dx(), b.Dy()

	if targetWidth > maxDimension || targetHeight > maxDimension {
		if targetWidth > targetHeight {
			targetHeight = targetHeight * maxDimension / targetWidth
			targetWidth = maxDimension
		} else {
			targetWidth = targetWidth * maxDimension / targetHeight
			targetHeight = maxDimension
		}
	}

	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetPixels))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// ImageDimensions holds image width and height in stored pixel order,
// before any orientation is applied.
type ImageDimensions struct {
	Width  int
	Height int
	Format string
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return decodeDimensions(file)
}

func decodeDimensions(r io.Reader) (*ImageDimensions, error) {
	config, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid %s dimensions %dx%d", format, config.Width, config.Height)
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}, nil
}
