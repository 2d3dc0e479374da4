package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetImageDimensions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		file   string
		width  int
		height int
		write  func(t *testing.T, path string, w, h int)
		format string
	}{
		{"landscape.jpg", 1920, 1080, func(t *testing.T, p string, w, h int) { writeJPEG(t, p, w, h) }, "jpeg"},
		{"portrait.jpg", 1080, 1920, func(t *testing.T, p string, w, h int) { writeJPEG(t, p, w, h) }, "jpeg"},
		{"square.png", 200, 200, writePNG, "png"},
		// Stored order: the orientation tag must not swap the raw size.
		{"rotated.jpg", 400, 200, func(t *testing.T, p string, w, h int) { writeJPEG(t, p, w, h, orientationSegment(6)) }, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			tt.write(t, path, tt.width, tt.height)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height || dims.Format != tt.format {
				t.Errorf("GetImageDimensions() = %dx%d %s, want %dx%d %s",
					dims.Width, dims.Height, dims.Format, tt.width, tt.height, tt.format)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(text, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.jpg"), text} {
		if _, err := GetImageDimensions(path); err == nil {
			t.Errorf("GetImageDimensions(%s) should fail", filepath.Base(path))
		}
	}
}

func TestLoadImageConstrained(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name          string
		width, height int
		maxDimension  int
		maxPixels     int
		wantW, wantH  int
	}{
		{"Within limits", 800, 600, 1600, 2_560_000, 800, 600},
		{"Too wide", 3200, 1600, 1600, 10_000_000, 1600, 800},
		{"Too tall", 1600, 3200, 1600, 10_000_000, 800, 1600},
		{"Too many pixels", 2000, 2000, 5000, 1_000_000, 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".jpg")
			writeJPEG(t, path, tt.width, tt.height)

			img, err := LoadImageConstrained(path, tt.maxDimension, tt.maxPixels)
			if err != nil {
				t.Fatalf("LoadImageConstrained() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoadImageConstrainedAppliesOrientation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.jpg")
	writeJPEG(t, path, 400, 200, orientationSegment(6))

	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 400 {
		t.Errorf("oriented bounds = %dx%d, want 200x400", b.Dx(), b.Dy())
	}
}

func TestImageConstants(t *testing.T) {
	if MaxImagePixels > MaxImageDimension*MaxImageDimension {
		t.Errorf("MaxImagePixels %d can never be reached with MaxImageDimension %d", MaxImagePixels, MaxImageDimension)
	}
}
