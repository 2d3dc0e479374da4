package media

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

// TIFF field types used by the fixtures.
const (
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
)

const exifPointerTag = 0x8769

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	return ifdEntry{tag: tag, typ: typeShort, count: 1, data: binary.LittleEndian.AppendUint16(nil, v)}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	data := binary.LittleEndian.AppendUint32(nil, num)
	data = binary.LittleEndian.AppendUint32(data, den)
	return ifdEntry{tag: tag, typ: typeRational, count: 1, data: data}
}

func undefinedEntry(tag uint16, data []byte) ifdEntry {
	return ifdEntry{tag: tag, typ: typeUndefined, count: uint32(len(data)), data: data}
}

// buildTIFF lays out a little-endian TIFF block with IFD0 and, when
// exifIFD is non-empty, an Exif sub-IFD linked from IFD0.
func buildTIFF(ifd0, exifIFD []ifdEntry) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, ifdEntry{tag: exifPointerTag, typ: typeLong, count: 1})
	}

	exifOffset := 8 + ifdSize(len(ifd0))
	dataOffset := exifOffset
	if len(exifIFD) > 0 {
		dataOffset += ifdSize(len(exifIFD))
	}

	var data []byte
	writeIFD := func(buf []byte, entries []ifdEntry) []byte {
		buf = le.AppendUint16(buf, uint16(len(entries)))
		for _, e := range entries {
			buf = le.AppendUint16(buf, e.tag)
			buf = le.AppendUint16(buf, e.typ)
			buf = le.AppendUint32(buf, e.count)

			payload := e.data
			if e.tag == exifPointerTag {
				payload = le.AppendUint32(nil, uint32(exifOffset))
			}
			if len(payload) <= 4 {
				inline := make([]byte, 4)
				copy(inline, payload)
				buf = append(buf, inline...)
				continue
			}
			buf = le.AppendUint32(buf, uint32(dataOffset+len(data)))
			data = append(data, payload...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		return le.AppendUint32(buf, 0)
	}

	out := []byte("II*\x00")
	out = le.AppendUint32(out, 8)
	out = writeIFD(out, ifd0)
	if len(exifIFD) > 0 {
		out = writeIFD(out, exifIFD)
	}
	return append(out, data...)
}

func app1(payload []byte) []byte {
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	return append(seg, payload...)
}

func exifSegment(tiff []byte) []byte {
	return app1(append([]byte("Exif\x00\x00"), tiff...))
}

func xmpSegment(packet string) []byte {
	return app1(append(append([]byte{}, xmpNamespace...), packet...))
}

func orientationSegment(orientation uint16) []byte {
	return exifSegment(buildTIFF([]ifdEntry{shortEntry(0x0112, orientation)}, nil))
}

func gradient(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// writeJPEG encodes a width x height JPEG with the given marker segments
// inserted right after SOI.
func writeJPEG(t *testing.T, path string, width, height int, segments ...[]byte) {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	encoded := buf.Bytes()
	out := append([]byte{}, encoded[:2]...)
	for _, seg := range segments {
		out = append(out, seg...)
	}
	out = append(out, encoded[2:]...)

	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, gradient(width, height)); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func xmpPacket(description string) string {
	return `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:lr="http://ns.adobe.com/lightroom/1.0/">
` + description + `
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`
}

func subjectXML(tags ...string) string {
	return "<dc:subject><rdf:Bag>" + listItems(tags) + "</rdf:Bag></dc:subject>"
}

func hierarchicalXML(tags ...string) string {
	return "<lr:hierarchicalSubject><rdf:Bag>" + listItems(tags) + "</rdf:Bag></lr:hierarchicalSubject>"
}

func listItems(items []string) string {
	var out string
	for _, item := range items {
		out += "<rdf:li>" + item + "</rdf:li>"
	}
	return out
}
