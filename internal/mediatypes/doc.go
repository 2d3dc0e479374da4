// Package mediatypes holds the file classification tables shared by the
// walker, the inspector and the preview server.
//
// It has no dependencies beyond the standard library so that any package can
// import it without creating cycles.
//
// # Extension Sets
//
// An ExtensionSet is a lower-cased set of extensions with leading dots:
//
//	exts := mediatypes.NewExtensionSet([]string{"JPG", ".jpeg"})
//	exts.Matches("IMG_0001.JPG") // true
//
// DefaultImageExtensions lists what the builder treats as gallery images when
// no file_extensions are configured. RawExtensions lists the sibling formats
// linked from an image record (tiff and camera raw).
//
// # Non-content Names
//
// IsNonContent reports names the walker never treats as folder content:
// generated pages, manifests, robots files and anything hidden.
package mediatypes
