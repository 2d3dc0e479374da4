// Package tags aggregates image tags and parses hierarchical tag paths.
//
// A folder's tag Set is the union of its own image tags and the sets returned
// by its child folders, so the root ends up holding every tag in the gallery.
//
// Hierarchical tags encode a category path with a delimiter, "|" by default:
//
//	tree := tags.Parse([]string{"A|B|C", "A|B|D"}, "|")
//	// tree["A"]["B"] == tags.Tree{"C": {}, "D": {}}
//
// Leaf segments map to an empty Tree rather than nil so that the JSON form
// is always an object.
package tags
