package metadata

// document is a decoded cache file before it is bound to FolderCache.
type document = map[string]any

// migration is one step of the upgrade chain. It reports whether it changed
// the document.
type migration struct {
	name  string
	apply func(doc document) bool
}

// chain runs in order after the document has been wrapped and merged with
// the legacy sibling.
var chain = []migration{
	{"rename-dimension-keys", renameDimensionKeys},
	{"default-fields", defaultFields},
	{"stamp-version", stampVersion},
}

// upgrade brings doc and an optional legacy sibling document to the current
// schema. It returns the upgraded document and the names of the steps that
// changed something. A nil doc is treated as an empty cache.
func upgrade(doc, legacy document) (document, []string) {
	var applied []string

	doc, wrapped := wrapFlat(doc)
	if wrapped && len(doc["images"].(document)) > 0 {
		applied = append(applied, "wrap-flat")
	}
	if mergeLegacy(doc, legacy) {
		applied = append(applied, "merge-legacy")
	}
	for _, m := range chain {
		if m.apply(doc) {
			applied = append(applied, m.name)
		}
	}
	return doc, applied
}

// wrapFlat turns the oldest layout, a bare filename→record mapping, into
// {"images": ...}. It returns doc unchanged when it is already wrapped.
func wrapFlat(doc document) (document, bool) {
	if doc == nil {
		return document{"images": document{}}, true
	}
	for _, key := range []string{"version", "images", "subfolders"} {
		if _, ok := doc[key]; ok {
			return doc, false
		}
	}
	return document{"images": doc}, true
}

// mergeLegacy copies the images of a legacy document into doc. Entries
// already present in doc win.
func mergeLegacy(doc, legacy document) bool {
	if legacy == nil {
		return false
	}
	legacy, _ = wrapFlat(legacy)
	from, _ := legacy["images"].(document)
	if len(from) == 0 {
		return false
	}

	into, ok := doc["images"].(document)
	if !ok {
		into = document{}
		doc["images"] = into
	}
	changed := false
	for name, rec := range from {
		if _, exists := into[name]; exists {
			continue
		}
		into[name] = rec
		changed = true
	}
	return changed
}

// renameDimensionKeys rewrites width/height to w/h.
func renameDimensionKeys(doc document) bool {
	changed := false
	forEachRecord(doc, func(_ string, rec document) {
		for old, short := range map[string]string{"width": "w", "height": "h"} {
			v, ok := rec[old]
			if !ok {
				continue
			}
			if _, has := rec[short]; !has {
				rec[short] = v
			}
			delete(rec, old)
			changed = true
		}
	})
	return changed
}

// defaultFields fills in fields that older schemas did not write and drops
// values of the wrong shape.
func defaultFields(doc document) bool {
	changed := false
	set := func(rec document, key string, v any) {
		rec[key] = v
		changed = true
	}

	if _, ok := doc["images"].(document); !ok {
		set(doc, "images", document{})
	}
	if _, ok := doc["subfolders"].([]any); !ok {
		set(doc, "subfolders", []any{})
	}

	forEachRecord(doc, func(name string, rec document) {
		for _, key := range []string{"w", "h"} {
			if _, ok := rec[key]; !ok {
				set(rec, key, nil)
			}
		}
		if _, ok := rec["tags"].([]any); !ok {
			set(rec, "tags", []any{})
		}
		for _, key := range []string{"exifdata", "xmp"} {
			v, ok := rec[key]
			if !ok {
				set(rec, key, nil)
				continue
			}
			if _, isMap := v.(document); !isMap && v != nil {
				set(rec, key, nil)
			}
		}
		for _, key := range []string{"src", "msrc", "title"} {
			if _, ok := rec[key].(string); !ok {
				set(rec, key, "")
			}
		}
		if s, ok := rec["name"].(string); !ok || s == "" {
			set(rec, "name", name)
		}
	})
	return changed
}

// stampVersion records the current schema version.
func stampVersion(doc document) bool {
	if v, ok := doc["version"]; ok && numberEquals(v, SchemaVersion) {
		return false
	}
	doc["version"] = SchemaVersion
	return true
}

// forEachRecord calls fn for every image record that is a JSON object.
// Records of any other shape are removed.
func forEachRecord(doc document, fn func(name string, rec document)) {
	images, ok := doc["images"].(document)
	if !ok {
		return
	}
	for name, v := range images {
		rec, ok := v.(document)
		if !ok {
			delete(images, name)
			continue
		}
		fn(name, rec)
	}
}
