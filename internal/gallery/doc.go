// Package gallery walks an image tree and builds the page context of every
// folder, keeping each folder's metadata cache in step with its contents.
//
// A walk is a single-threaded, depth-first recursion. Visiting a folder:
//
//  1. loads its cache (discarding it first when thumbnails are regenerated)
//  2. lists the folder in lexical order, dropping dotfiles, generated site
//     files and ignored extensions
//  3. visits child folders before the folder itself is finished, unless they
//     match an exclusion; excluded children are still linked
//  4. reconciles every image against the cache: new images, and all images
//     when metadata re-reading is forced, are inspected; existing entries may
//     have their sidecar tags refreshed; entries for vanished files are
//     evicted
//  5. queues a thumbnail job for every image whose thumbnail is missing
//  6. saves the cache, then renders the folder or removes a stale index page
//
// Each visit returns its tags, jobs and counters to its parent, so the root
// result holds the complete thumbnail queue and the tag union of the whole
// tree. Rendering the thumbnails is left to the caller, after the walk.
package gallery
