// Package metadata reads and writes the per-folder metadata cache.
//
// Every gallery folder that holds images carries a .metadata.json document:
//
//	{
//	    "version": 2,
//	    "images": {
//	        "a.jpg": {"w": 640, "h": 480, "tags": ["Sunset"], ...}
//	    },
//	    "subfolders": [{"url": "...", "name": "Trip"}]
//	}
//
// Load upgrades older layouts through a fixed chain of steps: a bare
// filename→record mapping is wrapped, the .sizelist.json sibling written by
// older releases is merged and deleted, width/height keys are shortened to
// w/h, missing fields get their defaults, and the schema version is stamped.
// Each step is a plain function over the decoded document.
//
// Save never writes an empty document; it deletes the file instead. Output is
// indented, map keys are sorted by encoding/json, and the file is replaced
// atomically and only when its bytes change, so an unchanged tree produces no
// writes at all.
package metadata
