package media

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifTimestamp matches the fixed EXIF date layout "YYYY:MM:DD HH:MM:SS".
var exifTimestamp = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}`)

const (
	exifTimeLayout   = "2006:01:02 15:04:05"
	outputTimeLayout = "2006-01-02 15:04:05"
)

// strippedExifField reports fields left out of the normalized map: opaque
// vendor payloads, IFD pointers, thumbnail offsets and GPS data.
func strippedExifField(name exif.FieldName) bool {
	switch name {
	case exif.MakerNote, exif.UserComment, "PrintImageMatching":
		return true
	case exif.ExifIFDPointer, exif.GPSInfoIFDPointer, exif.InteroperabilityIFDPointer, exif.InteroperabilityIndex:
		return true
	case exif.ThumbJPEGInterchangeFormat, exif.ThumbJPEGInterchangeFormatLength:
		return true
	}
	return strings.HasPrefix(string(name), "GPS")
}

var timestampFields = map[exif.FieldName]bool{
	exif.DateTime:          true,
	exif.DateTimeOriginal:  true,
	exif.DateTimeDigitized: true,
}

// ReadExif decodes the EXIF block of r into a flat map keyed by tag name.
// The primary IFD and the Exif sub-IFD are merged, the sub-IFD winning on
// conflicts. Tags without a known name are kept under their decimal tag
// ID. GPS fields are not included. A nil map with a nil error means
// the image carries no EXIF data.
func ReadExif(r io.Reader) (map[string]any, error) {
	x, err := exif.Decode(r)
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			if isNoExif(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("decoding exif: %w", err)
		}
	}

	collector := exifCollector{fields: make(map[string]any), seen: make(map[uint16]bool)}
	if err := x.Walk(&collector); err != nil {
		return nil, fmt.Errorf("walking exif: %w", err)
	}
	collector.addUnnamed(x)
	if len(collector.fields) == 0 {
		return nil, nil
	}
	return collector.fields, nil
}

// isNoExif reports whether err only says the image has no EXIF segment.
func isNoExif(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "failed to find exif") || strings.Contains(msg, "EOF")
}

type exifCollector struct {
	fields map[string]any
	seen   map[uint16]bool
}

func (c *exifCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.seen[tag.Id] = true
	if strippedExifField(name) {
		return nil
	}
	if timestampFields[name] {
		c.fields[string(name)] = normalizeTimestamp(tag)
		return nil
	}
	c.fields[string(name)] = normalizeTag(tag)
	return nil
}

// addUnnamed adds the tags of the primary IFD and the Exif sub-IFD that
// goexif has no name for.
func (c *exifCollector) addUnnamed(x *exif.Exif) {
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return
	}
	dirs := []*tiff.Dir{x.Tiff.Dirs[0]}
	if sub := exifSubDir(x); sub != nil {
		dirs = append(dirs, sub)
	}
	for _, dir := range dirs {
		for _, tag := range dir.Tags {
			if c.seen[tag.Id] {
				continue
			}
			c.seen[tag.Id] = true
			c.fields[strconv.Itoa(int(tag.Id))] = normalizeTag(tag)
		}
	}
}

func exifSubDir(x *exif.Exif) *tiff.Dir {
	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	return dir
}

// normalizeTag converts a TIFF tag value into a JSON-friendly value:
// strings stay strings, numbers become scalars or arrays depending on the
// value count, rationals become floats and undefined payloads become hex.
func normalizeTag(tag *tiff.Tag) any {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		return s

	case tiff.UndefVal, tiff.OtherVal:
		return "0x" + hex.EncodeToString(tag.Val)

	case tiff.IntVal:
		return collectValues(tag, func(i int) (any, bool) {
			v, err := tag.Int64(i)
			return v, err == nil
		})

	case tiff.FloatVal:
		return collectValues(tag, func(i int) (any, bool) {
			v, err := tag.Float(i)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			return v, true
		})

	case tiff.RatVal:
		return collectValues(tag, func(i int) (any, bool) {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, false
			}
			return rationalValue(num, den), true
		})
	}
	return nil
}

func collectValues(tag *tiff.Tag, at func(i int) (any, bool)) any {
	count := int(tag.Count)
	if count == 1 {
		v, ok := at(0)
		if !ok {
			return nil
		}
		return v
	}

	values := make([]any, 0, count)
	for i := 0; i < count; i++ {
		if v, ok := at(i); ok {
			values = append(values, v)
		}
	}
	return values
}

// rationalValue returns num/den rounded to six decimal places, or nil for a
// zero denominator.
func rationalValue(num, den int64) any {
	if den == 0 {
		return nil
	}
	return math.Round(float64(num)/float64(den)*1e6) / 1e6
}

func normalizeTimestamp(tag *tiff.Tag) any {
	if tag.Format() != tiff.StringVal {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	return reformatTimestamp(s)
}

// reformatTimestamp turns "2021:07:04 18:30:00" into "2021-07-04 18:30:00".
// Anything else, including impossible dates, yields nil.
func reformatTimestamp(s string) any {
	if !exifTimestamp.MatchString(s) {
		return nil
	}
	t, err := time.Parse(exifTimeLayout, s[:len(exifTimeLayout)])
	if err != nil {
		return nil
	}
	return t.Format(outputTimeLayout)
}

// exifOrientation returns the Orientation value from normalized EXIF data.
func exifOrientation(fields map[string]any) int {
	switch v := fields[string(exif.Orientation)].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case []any:
		if len(v) > 0 {
			if n, ok := v[0].(int64); ok {
				return int(n)
			}
		}
	}
	return 0
}

// swapsDimensions reports whether an orientation rotates the image by 90
// degrees, so that displayed width and height are the stored ones swapped.
func swapsDimensions(orientation int) bool {
	return orientation == 6 || orientation == 8
}
