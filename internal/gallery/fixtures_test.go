package gallery

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// orientationSegment is a minimal EXIF APP1 segment carrying only the
// Orientation tag.
func orientationSegment(orientation uint16) []byte {
	le := binary.LittleEndian
	tiff := []byte("II*\x00")
	tiff = le.AppendUint32(tiff, 8)
	tiff = le.AppendUint16(tiff, 1)
	tiff = le.AppendUint16(tiff, 0x0112)
	tiff = le.AppendUint16(tiff, 3)
	tiff = le.AppendUint32(tiff, 1)
	tiff = le.AppendUint16(tiff, orientation)
	tiff = le.AppendUint16(tiff, 0)
	tiff = le.AppendUint32(tiff, 0)

	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	return append(seg, payload...)
}

// writeJPEG writes a width x height JPEG. A non-zero orientation is stored
// in an EXIF segment.
func writeJPEG(t *testing.T, path string, width, height int, orientation uint16) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	encoded := buf.Bytes()
	out := append([]byte{}, encoded[:2]...)
	if orientation != 0 {
		out = append(out, orientationSegment(orientation)...)
	}
	out = append(out, encoded[2:]...)

	writeFile(t, path, string(out))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sidecar(tags ...string) string {
	items := ""
	for _, tag := range tags {
		items += "<rdf:li>" + tag + "</rdf:li>"
	}
	return `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
   <dc:subject><rdf:Bag>` + items + `</rdf:Bag></dc:subject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`
}

// recordingRenderer remembers every folder it was asked to render.
type recordingRenderer struct {
	mu      sync.Mutex
	folders map[string]*Folder
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{folders: make(map[string]*Folder)}
}

func (r *recordingRenderer) Render(folder *Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders[folder.Rel] = folder
	return nil
}

func (r *recordingRenderer) rendered(rel string) (*Folder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[rel]
	return f, ok
}

func newTestWalker(t *testing.T, root string, renderer Renderer, configure func(*Options)) *Walker {
	t.Helper()
	opts := Options{Root: root, WebRootURL: "/", SiteTitle: "Gallery"}
	if configure != nil {
		configure(&opts)
	}
	w, err := NewWalker(opts, renderer)
	if err != nil {
		t.Fatalf("NewWalker() error = %v", err)
	}
	return w
}

// touchThumbnails stands in for the render phase.
func touchThumbnails(t *testing.T, result *WalkResult) {
	t.Helper()
	for _, job := range result.Jobs {
		writeFile(t, job.Dest(), "thumbnail")
	}
}
