package gallery

import (
	"static-gallery/internal/media"
	"static-gallery/internal/metadata"
	"static-gallery/internal/tags"
)

// Folder is the page context of one visited directory. It is built by the
// walker, handed to the Renderer and then discarded.
type Folder struct {
	// Path is the absolute directory path.
	Path string
	// Rel is the slash-separated path below the gallery root, "" for the root.
	Rel       string
	Title     string
	Header    string
	URL       string
	ParentURL string

	Images     []*metadata.ImageRecord
	Subfolders []metadata.SubfolderRecord
	// Tags holds the tags of this folder's images and of every visited
	// folder below it.
	Tags tags.Set
	// TagTree is Tags parsed into its hierarchy.
	TagTree tags.Tree

	Info    []string
	License string
}

// IsRoot reports whether f is the gallery root.
func (f *Folder) IsRoot() bool {
	return f.Rel == ""
}

// Renderer turns a folder into its index page.
type Renderer interface {
	Render(folder *Folder) error
}

// Stats counts what a walk did.
type Stats struct {
	FoldersVisited    int
	FoldersRendered   int
	FoldersSuppressed int
	FoldersExcluded   int
	ImagesCached      int
	ImagesInspected   int
	SidecarsRefreshed int
	UnreadableImages  int
	EntriesEvicted    int
	RenderErrors      int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.FoldersVisited += other.FoldersVisited
	s.FoldersRendered += other.FoldersRendered
	s.FoldersSuppressed += other.FoldersSuppressed
	s.FoldersExcluded += other.FoldersExcluded
	s.ImagesCached += other.ImagesCached
	s.ImagesInspected += other.ImagesInspected
	s.SidecarsRefreshed += other.SidecarsRefreshed
	s.UnreadableImages += other.UnreadableImages
	s.EntriesEvicted += other.EntriesEvicted
	s.RenderErrors += other.RenderErrors
}

// Images returns the number of images seen by the walk.
func (s Stats) Images() int {
	return s.ImagesCached + s.ImagesInspected + s.SidecarsRefreshed
}

// WalkResult is everything a walk produces.
type WalkResult struct {
	// Root is the page context of the gallery root.
	Root *Folder
	// Jobs is the thumbnail queue, in traversal order.
	Jobs []media.Job
	// Tags is the union of every image tag in the tree.
	Tags tags.Set
	// Info and Licenses hold the captured info and LICENSE texts keyed by
	// absolute folder path.
	Info     map[string][]string
	Licenses map[string]string
	Stats    Stats
}

// visitResult is what one folder visit hands back to its parent.
type visitResult struct {
	folder   *Folder
	tags     tags.Set
	jobs     []media.Job
	info     map[string][]string
	licenses map[string]string
	stats    Stats
}

func newVisitResult(folder *Folder) *visitResult {
	return &visitResult{
		folder:   folder,
		tags:     tags.NewSet(),
		info:     make(map[string][]string),
		licenses: make(map[string]string),
	}
}

// merge folds a child's result into r.
func (r *visitResult) merge(child *visitResult) {
	r.tags.Union(child.tags)
	r.jobs = append(r.jobs, child.jobs...)
	for k, v := range child.info {
		r.info[k] = v
	}
	for k, v := range child.licenses {
		r.licenses[k] = v
	}
	r.stats.Add(child.stats)
}
