package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"
	"static-gallery/internal/mediatypes"
	"static-gallery/internal/metadata"
	"static-gallery/internal/metrics"
	"static-gallery/internal/tags"
)

// Walker builds the gallery of one tree. Traversal is single-threaded and
// depth-first: a folder's children are complete before the folder renders.
type Walker struct {
	opts     Options
	renderer Renderer
}

// NewWalker validates opts and returns a Walker. renderer may be nil, in
// which case folders are reconciled but no pages are written.
func NewWalker(opts Options, renderer Renderer) (*Walker, error) {
	opts = opts.withDefaults()
	if opts.Root == "" {
		return nil, errors.New("gallery root is not set")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving gallery root: %w", err)
	}
	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("gallery root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("gallery root %s is not a directory", root)
	}
	opts.Root = filepath.Clean(root)

	return &Walker{opts: opts, renderer: renderer}, nil
}

// Options returns the effective options of w.
func (w *Walker) Options() Options {
	return w.opts
}

// Walk visits the whole tree. When ctx is cancelled the folder being
// visited is finished and its cache persisted, and Walk returns what was
// collected so far together with the context error.
func (w *Walker) Walk(ctx context.Context) (*WalkResult, error) {
	start := time.Now()
	logging.Info("Walking gallery %s", w.opts.Root)

	res, err := w.visit(ctx, w.opts.Root, "")
	metrics.BuildLastDuration.WithLabelValues("walk").Set(time.Since(start).Seconds())
	if res == nil {
		return nil, err
	}

	result := &WalkResult{
		Root:     res.folder,
		Jobs:     res.jobs,
		Tags:     res.tags,
		Info:     res.info,
		Licenses: res.licenses,
		Stats:    res.stats,
	}
	logging.Info("Walked %d folders in %v: %d images, %d thumbnails to render",
		result.Stats.FoldersVisited, time.Since(start).Round(time.Millisecond), result.Stats.Images(), len(result.Jobs))
	return result, err
}

// entryKind is the role of a listed directory entry.
type entryKind int

const (
	kindSkip entryKind = iota
	kindFolder
	kindImage
	kindInfo
	kindLicense
	kindOther
)

type listedEntry struct {
	name string
	kind entryKind
}

// list reads dir and classifies its entries in lexical order.
func (w *Walker) list(dir string) ([]listedEntry, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	listed := make([]listedEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		kind := kindSkip
		switch {
		case mediatypes.IsNonContent(name):
		case isDir(entry, filepath.Join(dir, name)):
			kind = kindFolder
		case w.opts.IgnoredExtensions.Matches(name):
		default:
			switch mediatypes.Classify(name, w.opts.ImageExtensions) {
			case mediatypes.FileTypeImage:
				kind = kindImage
			case mediatypes.FileTypeInfo:
				kind = kindInfo
			case mediatypes.FileTypeLicense:
				kind = kindLicense
			default:
				kind = kindOther
			}
		}
		listed = append(listed, listedEntry{name: name, kind: kind})
	}
	return listed, nil
}

// isDir follows symlinks so linked folders are visited like real ones.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Walker) newFolder(dir, rel string) *Folder {
	title := w.opts.SiteTitle
	header := filepath.Base(dir)
	if rel != "" {
		title = "/" + rel
	} else {
		if title == "" {
			title = header
		}
		header = title
	}
	return &Folder{
		Path:      dir,
		Rel:       rel,
		Title:     title,
		Header:    header,
		URL:       w.opts.folderURL(rel),
		ParentURL: w.opts.parentURL(rel),
	}
}

// visit processes one folder and, recursively, everything below it.
func (w *Walker) visit(ctx context.Context, dir, rel string) (*visitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.opts.Progress != nil {
		w.opts.Progress(rel)
	}
	logging.Debug("Processing folder %s", dir)

	if w.opts.RegenerateThumbnails {
		if err := metadata.Remove(dir); err != nil {
			logging.Warn("Failed to discard metadata cache of %s: %v", dir, err)
		}
	}
	cache, err := metadata.Load(dir)
	if err != nil {
		logging.Warn("Failed to load metadata cache of %s: %v", dir, err)
	}

	entries, err := w.list(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	folder := w.newFolder(dir, rel)
	result := newVisitResult(folder)
	result.stats.FoldersVisited = 1

	siblings := make(map[string]string, len(entries))
	present := make(map[string]bool)
	for _, e := range entries {
		siblings[strings.ToLower(e.name)] = e.name
		if e.kind == kindImage {
			present[e.name] = true
		}
	}

	containsFiles := false
	var interrupted error

	for _, e := range entries {
		entryPath := filepath.Join(dir, e.name)

		switch e.kind {
		case kindSkip:
			continue
		case kindFolder:
			interrupted = w.visitSubfolder(ctx, result, dir, rel, e.name)
		case kindImage:
			containsFiles = true
			rec, action := w.reconcileImage(cache, dir, e.name)
			w.linkRecord(rec, rel, e.name, siblings)
			result.count(action, rec)
			folder.Images = append(folder.Images, rec)
			if job, ok := w.schedule(dir, rel, e.name); ok {
				result.jobs = append(result.jobs, job)
			}
		case kindInfo:
			containsFiles = true
			if lines, ok := readInfo(entryPath); ok {
				folder.Info = lines
				result.info[dir] = lines
			}
		case kindLicense:
			containsFiles = true
			if text, ok := readText(entryPath); ok {
				folder.License = text
				result.licenses[dir] = text
			}
		case kindOther:
			containsFiles = true
		}

		if interrupted != nil {
			break
		}
	}

	result.stats.EntriesEvicted += evict(cache, present, dir)
	w.sortImages(folder.Images)
	if interrupted == nil {
		cache.Subfolders = folder.Subfolders
	}
	if err := metadata.Save(cache, dir); err != nil {
		logging.Error("Failed to save metadata cache of %s: %v", dir, err)
	}

	for _, rec := range folder.Images {
		result.tags.Add(rec.Tags...)
	}
	folder.Tags = result.tags
	folder.TagTree = tags.Parse(folder.Tags.Sorted(), w.opts.TagDelimiter)

	if interrupted != nil {
		logging.Debug("Stopped in %s: %v", dir, interrupted)
		return result, interrupted
	}

	if w.shouldRender(len(folder.Images), containsFiles) {
		w.render(result)
	} else {
		w.suppress(result)
	}
	return result, nil
}

// visitSubfolder links the child folder name and visits it unless it is
// excluded. Only a cancelled context is returned as an error; any other
// failure is logged and the child stays a plain link.
func (w *Walker) visitSubfolder(ctx context.Context, parent *visitResult, dir, rel, name string) error {
	childDir := filepath.Join(dir, name)
	childRel := path.Join(rel, name)
	record := metadata.SubfolderRecord{URL: w.opts.folderURL(childRel), Name: name}

	var child *visitResult
	var err error
	if w.opts.excluded(childDir, name) {
		logging.Info("Skipping excluded folder %s", childDir)
		parent.stats.FoldersExcluded++
		metrics.WalkerFoldersTotal.WithLabelValues("excluded").Inc()
	} else {
		child, err = w.visit(ctx, childDir, childRel)
		if err != nil && ctx.Err() == nil {
			logging.Error("Failed to process folder %s: %v", childDir, err)
			err = nil
		}
	}

	if child != nil {
		parent.merge(child)
		if filesystem.Exists(metadata.Path(childDir)) {
			record.Metadata = w.opts.metadataURL(childRel)
		}
	}
	if w.opts.FolderThumbnails {
		record.Thumb = w.folderThumbnail(childDir, childRel, child)
	}
	parent.folder.Subfolders = append(parent.folder.Subfolders, record)
	return err
}

// folderThumbnail picks the thumbnail shown on a subfolder link: the first
// image of the child in display order. Children that were not visited are
// listed directly.
func (w *Walker) folderThumbnail(childDir, childRel string, child *visitResult) string {
	if child != nil {
		if len(child.folder.Images) == 0 {
			return ""
		}
		return child.folder.Images[0].MSrc
	}

	entries, err := filesystem.ReadDirWithRetry(childDir, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Failed to list %s for a folder thumbnail: %v", childDir, err)
		return ""
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || mediatypes.IsNonContent(name) || !w.opts.ImageExtensions.Matches(name) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	pick := names[0]
	if w.opts.ReverseSort {
		pick = names[len(names)-1]
	}
	return w.opts.thumbnailURL(childRel, pick)
}

func (w *Walker) sortImages(images []*metadata.ImageRecord) {
	sort.SliceStable(images, func(i, j int) bool {
		if w.opts.ReverseSort {
			return images[i].Name > images[j].Name
		}
		return images[i].Name < images[j].Name
	})
}

// shouldRender decides whether a folder gets an index page: it must hold
// images, or fancy folders must be on and the folder must either hold no
// files or other files must be ignored.
func (w *Walker) shouldRender(images int, containsFiles bool) bool {
	if images > 0 {
		return true
	}
	return w.opts.FancyFolders && (!containsFiles || w.opts.IgnoreOtherFiles)
}

func (w *Walker) render(result *visitResult) {
	folder := result.folder
	result.stats.FoldersRendered++
	metrics.WalkerFoldersTotal.WithLabelValues("rendered").Inc()
	if w.renderer == nil {
		return
	}
	if err := w.renderer.Render(folder); err != nil {
		logging.Error("Failed to render %s: %v", folder.Path, err)
		result.stats.RenderErrors++
	}
}

// suppress removes the page a previous run left in a folder that no longer
// qualifies for one.
func (w *Walker) suppress(result *visitResult) {
	folder := result.folder
	result.stats.FoldersSuppressed++
	metrics.WalkerFoldersTotal.WithLabelValues("suppressed").Inc()

	index := filepath.Join(folder.Path, IndexFileName)
	err := os.Remove(index)
	switch {
	case err == nil:
		logging.Info("Removed stale %s", index)
	case !errors.Is(err, os.ErrNotExist):
		logging.Warn("Failed to remove stale %s: %v", index, err)
	}
}

// count records the reconciliation outcome of one image.
func (r *visitResult) count(action imageAction, rec *metadata.ImageRecord) {
	switch action {
	case actionInspect:
		r.stats.ImagesInspected++
		if !rec.HasDimensions() {
			r.stats.UnreadableImages++
		}
	case actionSidecar:
		r.stats.SidecarsRefreshed++
	default:
		r.stats.ImagesCached++
	}
}

func readText(path string) (string, bool) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Failed to read %s: %v", path, err)
		return "", false
	}
	return string(data), true
}

// readInfo returns the non-trivial lines of an info file.
func readInfo(path string) ([]string, bool) {
	text, ok := readText(path)
	if !ok {
		return nil, false
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) > 1 {
			lines = append(lines, line)
		}
	}
	return lines, true
}
