package media

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// xmpScanLimit bounds how much of an image is searched for an XMP packet.
const xmpScanLimit = 4 << 20

// xmpNamespace prefixes the payload of a JPEG APP1 segment holding XMP.
var xmpNamespace = []byte("http://ns.adobe.com/xap/1.0/\x00")

var errNoXMP = errors.New("no xmp packet")

// xmlNode is an element being assembled while decoding.
type xmlNode struct {
	name   string
	fields map[string]any
	text   strings.Builder
}

// ParseXMP converts an XMP document into nested maps keyed by local element
// names. Attributes become keys, repeated elements become lists, and rdf:li
// items are always collected into a list. An element with only text becomes
// a string; text alongside attributes or children is stored under "value".
func ParseXMP(data []byte) (map[string]any, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false

	var stack []*xmlNode
	var root map[string]any

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xmp: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local, fields: make(map[string]any)}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				node.fields[attr.Name.Local] = attr.Value
			}
			stack = append(stack, node)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("parsing xmp: unbalanced end element")
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := node.value()

			if len(stack) == 0 {
				root = map[string]any{node.name: value}
				continue
			}
			stack[len(stack)-1].addChild(node.name, value)
		}
	}

	if root == nil {
		return nil, errNoXMP
	}
	return root, nil
}

func (n *xmlNode) value() any {
	text := strings.TrimSpace(n.text.String())
	if len(n.fields) == 0 {
		return text
	}
	if text != "" {
		n.fields["value"] = text
	}
	return n.fields
}

func (n *xmlNode) addChild(name string, value any) {
	existing, ok := n.fields[name]
	switch {
	case name == "li":
		list, _ := existing.([]any)
		n.fields[name] = append(list, value)
	case !ok:
		n.fields[name] = value
	default:
		if list, isList := existing.([]any); isList {
			n.fields[name] = append(list, value)
		} else {
			n.fields[name] = []any{existing, value}
		}
	}
}

// ExtractXMP returns the raw XMP packet embedded in an image. JPEG files are
// searched for the XMP APP1 segment; any other format falls back to a scan
// of the file head for an xmpmeta or RDF envelope.
func ExtractXMP(r io.Reader) ([]byte, error) {
	head, err := io.ReadAll(io.LimitReader(r, xmpScanLimit))
	if err != nil {
		return nil, err
	}

	if packet := jpegXMPSegment(head); packet != nil {
		return packet, nil
	}
	if packet := scanXMPPacket(head); packet != nil {
		return packet, nil
	}
	return nil, errNoXMP
}

// jpegXMPSegment walks JPEG marker segments up to the start of scan and
// returns the payload of the XMP APP1 segment.
func jpegXMPSegment(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil
		}
		marker := data[pos+1]
		if marker == 0xFF {
			pos++
			continue
		}
		// Start of scan or end of image: no more metadata segments.
		if marker == 0xDA || marker == 0xD9 {
			return nil
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if length < 2 || pos+2+length > len(data) {
			return nil
		}
		payload := data[pos+4 : pos+2+length]
		if marker == 0xE1 && bytes.HasPrefix(payload, xmpNamespace) {
			return payload[len(xmpNamespace):]
		}
		pos += 2 + length
	}
	return nil
}

var xmpEnvelopes = []struct{ start, end string }{
	{"<x:xmpmeta", "</x:xmpmeta>"},
	{"<x:xapmeta", "</x:xapmeta>"},
	{"<rdf:RDF", "</rdf:RDF>"},
}

func scanXMPPacket(data []byte) []byte {
	for _, env := range xmpEnvelopes {
		start := bytes.Index(data, []byte(env.start))
		if start < 0 {
			continue
		}
		end := bytes.Index(data[start:], []byte(env.end))
		if end < 0 {
			continue
		}
		return data[start : start+end+len(env.end)]
	}
	return nil
}

// xmpDescriptions returns the rdf:Description nodes of a parsed document.
func xmpDescriptions(doc map[string]any) []map[string]any {
	var rdf any
	for _, rootName := range []string{"xmpmeta", "xapmeta"} {
		if root, ok := doc[rootName].(map[string]any); ok {
			rdf = root["RDF"]
			break
		}
	}
	if rdf == nil {
		rdf = doc["RDF"]
	}

	rdfMap, ok := rdf.(map[string]any)
	if !ok {
		return nil
	}

	var out []map[string]any
	for _, d := range asList(rdfMap["Description"]) {
		if m, ok := d.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// XMPTags returns the keywords of a parsed XMP document. Hierarchical
// subjects win over flat subjects when any description carries them.
func XMPTags(doc map[string]any) []string {
	descriptions := xmpDescriptions(doc)
	for _, field := range []string{"hierarchicalSubject", "subject"} {
		var tags []string
		found := false
		for _, d := range descriptions {
			bag, ok := d[field].(map[string]any)
			if !ok {
				continue
			}
			found = true
			for _, item := range asList(bag["Bag"]) {
				tags = append(tags, bagItems(item)...)
			}
		}
		if found {
			if tags == nil {
				tags = []string{}
			}
			return tags
		}
	}
	return []string{}
}

func bagItems(bag any) []string {
	m, ok := bag.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := m["li"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// XMPTitle returns the first dc:title alternative, or "".
func XMPTitle(doc map[string]any) string {
	for _, d := range xmpDescriptions(doc) {
		title, ok := d["title"].(map[string]any)
		if !ok {
			continue
		}
		alt, ok := title["Alt"].(map[string]any)
		if !ok {
			continue
		}
		items, _ := alt["li"].([]any)
		for _, item := range items {
			switch v := item.(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				if s, ok := v["value"].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}
