package gallery

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"static-gallery/internal/media"
	"static-gallery/internal/metadata"
)

func TestWalkTripScenario(t *testing.T) {
	root := t.TempDir()
	trip := filepath.Join(root, "Trip")
	writeJPEG(t, filepath.Join(trip, "a.jpg"), 40, 30, 0)
	writeFile(t, filepath.Join(trip, "a.jpg.xmp"), sidecar("Sunset"))

	renderer := newRecordingRenderer()
	w := newTestWalker(t, root, renderer, nil)

	first, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if len(first.Jobs) != 1 {
		t.Fatalf("first run scheduled %d jobs, want 1", len(first.Jobs))
	}
	if job := first.Jobs[0]; job.Source() != filepath.Join(trip, "a.jpg") {
		t.Errorf("job source = %s", job.Source())
	}

	cache, err := metadata.Load(trip)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := cache.Images["a.jpg"]
	if !ok {
		t.Fatalf("no cache entry for a.jpg: %v", cache.Names())
	}
	if !reflect.DeepEqual(rec.Tags, []string{"Sunset"}) {
		t.Errorf("cached tags = %v, want [Sunset]", rec.Tags)
	}

	folder, ok := renderer.rendered("Trip")
	if !ok {
		t.Fatal("Trip was not rendered")
	}
	if _, ok := folder.Tags["Sunset"]; !ok {
		t.Errorf("Trip tags = %v", folder.Tags.Sorted())
	}
	_, inResult := first.Tags["Sunset"]
	_, inRoot := first.Root.Tags["Sunset"]
	if !inResult || !inRoot {
		t.Errorf("root tags = %v, want Sunset aggregated", first.Root.Tags.Sorted())
	}
	if _, ok := first.Root.TagTree["Sunset"]; !ok {
		t.Errorf("root tag tree = %v", first.Root.TagTree)
	}

	touchThumbnails(t, first)
	before := readFile(t, metadata.Path(trip))

	second, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("second Walk() error = %v", err)
	}
	if len(second.Jobs) != 0 {
		t.Errorf("second run scheduled %d jobs, want 0", len(second.Jobs))
	}
	if after := readFile(t, metadata.Path(trip)); !bytes.Equal(before, after) {
		t.Errorf("cache changed between runs:\n%s\n---\n%s", before, after)
	}
	if second.Stats.ImagesInspected != 0 || second.Stats.ImagesCached != 1 {
		t.Errorf("second run stats = %+v, want the cached entry reused", second.Stats)
	}
}

func TestWalkIdempotent(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "b.jpg"), 20, 10, 0)
	writeJPEG(t, filepath.Join(root, "a.jpg"), 10, 20, 6)
	writeJPEG(t, filepath.Join(root, "Day 1", "c.jpeg"), 16, 16, 0)
	writeJPEG(t, filepath.Join(root, "Day 1", "Night", "d.jpg"), 16, 8, 0)
	writeFile(t, filepath.Join(root, "Day 1", "info"), "First day\n\nby the sea\n")

	w := newTestWalker(t, root, newRecordingRenderer(), func(o *Options) { o.FolderThumbnails = true })

	first, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(first.Jobs) != 4 {
		t.Errorf("first run scheduled %d jobs, want 4", len(first.Jobs))
	}
	touchThumbnails(t, first)

	folders := []string{root, filepath.Join(root, "Day 1"), filepath.Join(root, "Day 1", "Night")}
	snapshot := make(map[string][]byte)
	for _, dir := range folders {
		snapshot[dir] = readFile(t, metadata.Path(dir))
	}

	second, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("second Walk() error = %v", err)
	}
	if len(second.Jobs) != 0 {
		t.Errorf("second run scheduled %d jobs, want 0", len(second.Jobs))
	}
	for _, dir := range folders {
		if got := readFile(t, metadata.Path(dir)); !bytes.Equal(got, snapshot[dir]) {
			t.Errorf("cache of %s changed between runs", dir)
		}
	}
	if first.Stats.Images() != second.Stats.Images() {
		t.Errorf("image counts differ: %d vs %d", first.Stats.Images(), second.Stats.Images())
	}
}

func TestWalkEvictsOrphans(t *testing.T) {
	t.Run("Entry removed", func(t *testing.T) {
		root := t.TempDir()
		writeJPEG(t, filepath.Join(root, "kept.jpg"), 8, 8, 0)

		w := newTestWalker(t, root, nil, nil)
		if _, err := w.Walk(context.Background()); err != nil {
			t.Fatal(err)
		}

		cache, _ := metadata.Load(root)
		cache.Images["gone.jpg"] = &metadata.ImageRecord{Name: "gone.jpg", Tags: []string{}}
		if err := metadata.Save(cache, root); err != nil {
			t.Fatal(err)
		}

		result, err := w.Walk(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if result.Stats.EntriesEvicted != 1 {
			t.Errorf("EntriesEvicted = %d, want 1", result.Stats.EntriesEvicted)
		}
		cache, _ = metadata.Load(root)
		if !reflect.DeepEqual(cache.Names(), []string{"kept.jpg"}) {
			t.Errorf("cache names = %v, want [kept.jpg]", cache.Names())
		}
	})

	t.Run("Empty cache deleted", func(t *testing.T) {
		root := t.TempDir()
		cache := metadata.NewFolderCache()
		cache.Images["gone.jpg"] = &metadata.ImageRecord{Name: "gone.jpg", Tags: []string{}}
		if err := metadata.Save(cache, root); err != nil {
			t.Fatal(err)
		}

		w := newTestWalker(t, root, nil, nil)
		if _, err := w.Walk(context.Background()); err != nil {
			t.Fatal(err)
		}
		if exists(metadata.Path(root)) {
			t.Error("cache file should be deleted once it holds no images")
		}
	})
}

func TestWalkOrientationSwap(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "rotated.jpg"), 64, 32, 6)

	w := newTestWalker(t, root, nil, nil)
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	rec := result.Root.Images[0]
	if !rec.HasDimensions() {
		t.Fatal("dimensions missing")
	}
	if *rec.W != 32 || *rec.H != 64 {
		t.Errorf("record = %dx%d, want 32x64", *rec.W, *rec.H)
	}
}

func TestWalkRereadMetadata(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 30, 20, 0)

	w := newTestWalker(t, root, nil, nil)
	if _, err := w.Walk(context.Background()); err != nil {
		t.Fatal(err)
	}

	bogus := 1
	cache, _ := metadata.Load(root)
	cache.Images["a.jpg"].W = &bogus
	if err := metadata.Save(cache, root); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Walk(context.Background()); err != nil {
		t.Fatal(err)
	}
	cache, _ = metadata.Load(root)
	if got := *cache.Images["a.jpg"].W; got != bogus {
		t.Fatalf("without the flag the cached width should be reused, got %d", got)
	}

	forced := newTestWalker(t, root, nil, func(o *Options) { o.RereadMetadata = true })
	result, err := forced.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.ImagesInspected != 1 {
		t.Errorf("ImagesInspected = %d, want 1", result.Stats.ImagesInspected)
	}
	cache, _ = metadata.Load(root)
	if got := *cache.Images["a.jpg"].W; got != 30 {
		t.Errorf("width = %d after forced re-read, want 30", got)
	}
}

func TestWalkRereadSidecar(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "a.jpg")
	writeJPEG(t, image, 30, 20, 0)
	writeFile(t, media.SidecarPath(image), sidecar("Old"))

	w := newTestWalker(t, root, nil, nil)
	if _, err := w.Walk(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, media.SidecarPath(image), sidecar("New", "Tags"))

	tests := []struct {
		name   string
		reread bool
		want   []string
	}{
		{"Cached tags kept", false, []string{"Old"}},
		{"Sidecar re-read", true, []string{"New", "Tags"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walker := newTestWalker(t, root, nil, func(o *Options) { o.RereadSidecar = tt.reread })
			result, err := walker.Walk(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Root.Images[0].Tags; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkRereadSidecarRemoved(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "a.jpg")
	writeJPEG(t, image, 30, 20, 0)
	writeFile(t, media.SidecarPath(image), sidecar("Old"))

	if _, err := newTestWalker(t, root, nil, nil).Walk(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(media.SidecarPath(image)); err != nil {
		t.Fatal(err)
	}

	walker := newTestWalker(t, root, nil, func(o *Options) { o.RereadSidecar = true })
	result, err := walker.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Root.Images[0].Tags; len(got) != 0 {
		t.Errorf("tags = %v, want none once the sidecar is gone", got)
	}
}

func TestWalkRegenerateThumbnails(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 30, 20, 0)

	w := newTestWalker(t, root, nil, nil)
	first, err := w.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	touchThumbnails(t, first)
	dest := first.Jobs[0].Dest()

	regen := newTestWalker(t, root, nil, func(o *Options) { o.RegenerateThumbnails = true })
	result, err := regen.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Jobs) != 1 {
		t.Errorf("scheduled %d jobs, want 1", len(result.Jobs))
	}
	if exists(dest) {
		t.Error("stale thumbnail should be deleted before rescheduling")
	}
	if result.Stats.ImagesInspected != 1 {
		t.Errorf("cache should be discarded, stats = %+v", result.Stats)
	}
}

func TestWalkRenderDecision(t *testing.T) {
	tests := []struct {
		name         string
		files        map[string]string
		fancy        bool
		ignoreOthers bool
		wantRender   bool
	}{
		{"Images", map[string]string{"a.jpg": ""}, false, false, true},
		{"Only other files", map[string]string{"notes.txt": "x"}, false, false, false},
		{"Empty folder", nil, false, false, false},
		{"Empty folder with fancy folders", nil, true, false, true},
		{"Other files with fancy folders", map[string]string{"notes.txt": "x"}, true, false, false},
		{"Other files ignored", map[string]string{"notes.txt": "x"}, true, true, true},
		{"Dotfiles do not count", map[string]string{".DS_Store": "x"}, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name := range tt.files {
				if filepath.Ext(name) == ".jpg" {
					writeJPEG(t, filepath.Join(root, name), 8, 8, 0)
					continue
				}
				writeFile(t, filepath.Join(root, name), tt.files[name])
			}
			index := filepath.Join(root, IndexFileName)
			writeFile(t, index, "<html>stale</html>")

			renderer := newRecordingRenderer()
			w := newTestWalker(t, root, renderer, func(o *Options) {
				o.FancyFolders = tt.fancy
				o.IgnoreOtherFiles = tt.ignoreOthers
			})
			if _, err := w.Walk(context.Background()); err != nil {
				t.Fatal(err)
			}

			_, rendered := renderer.rendered("")
			if rendered != tt.wantRender {
				t.Errorf("rendered = %v, want %v", rendered, tt.wantRender)
			}
			if !tt.wantRender && exists(index) {
				t.Error("stale index.html should be removed from a suppressed folder")
			}
		})
	}
}

func TestWalkExcludedFolders(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "private", "p.jpg"), 8, 8, 0)
	writeJPEG(t, filepath.Join(root, "Trip", "hidden-raw", "h.jpg"), 8, 8, 0)
	writeJPEG(t, filepath.Join(root, "Trip", "t.jpg"), 8, 8, 0)

	renderer := newRecordingRenderer()
	w := newTestWalker(t, root, renderer, func(o *Options) {
		o.ExcludeFolders = []string{"private", "*/hidden-*"}
		o.FolderThumbnails = true
	})
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.FoldersExcluded != 2 {
		t.Errorf("FoldersExcluded = %d, want 2", result.Stats.FoldersExcluded)
	}
	for _, dir := range []string{filepath.Join(root, "private"), filepath.Join(root, "Trip", "hidden-raw")} {
		if exists(metadata.Path(dir)) {
			t.Errorf("excluded folder %s was visited", dir)
		}
	}
	if len(result.Jobs) != 1 {
		t.Errorf("jobs = %v, want only Trip/t.jpg", result.Jobs)
	}

	want := []metadata.SubfolderRecord{
		{URL: "/Trip", Name: "Trip", Thumb: "/.thumbnails/Trip/t.jpg.jpg", Metadata: "/Trip/.metadata.json"},
		{URL: "/private", Name: "private", Thumb: "/.thumbnails/private/p.jpg.jpg"},
	}
	if !reflect.DeepEqual(result.Root.Subfolders, want) {
		t.Errorf("subfolders = %+v\nwant %+v", result.Root.Subfolders, want)
	}

	trip, ok := renderer.rendered("Trip")
	if !ok {
		t.Fatal("Trip not rendered")
	}
	if len(trip.Subfolders) != 1 || trip.Subfolders[0].Name != "hidden-raw" {
		t.Errorf("Trip subfolders = %+v, want the excluded folder linked", trip.Subfolders)
	}
}

func TestWalkSortOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.jpg", "c.jpg", "a.jpg"} {
		writeJPEG(t, filepath.Join(root, "Set", name), 8, 8, 0)
	}

	tests := []struct {
		name      string
		reverse   bool
		wantOrder []string
		wantThumb string
	}{
		{"Ascending", false, []string{"a.jpg", "b.jpg", "c.jpg"}, "/.thumbnails/Set/a.jpg.jpg"},
		{"Descending", true, []string{"c.jpg", "b.jpg", "a.jpg"}, "/.thumbnails/Set/c.jpg.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := newRecordingRenderer()
			w := newTestWalker(t, root, renderer, func(o *Options) {
				o.ReverseSort = tt.reverse
				o.FolderThumbnails = true
			})
			result, err := w.Walk(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			set, _ := renderer.rendered("Set")
			var order []string
			for _, rec := range set.Images {
				order = append(order, rec.Name)
			}
			if !reflect.DeepEqual(order, tt.wantOrder) {
				t.Errorf("order = %v, want %v", order, tt.wantOrder)
			}
			if got := result.Root.Subfolders[0].Thumb; got != tt.wantThumb {
				t.Errorf("folder thumbnail = %s, want %s", got, tt.wantThumb)
			}
		})
	}
}

func TestWalkRecordLinks(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Day 1")
	writeJPEG(t, filepath.Join(dir, "IMG 1.jpg"), 8, 8, 0)
	writeFile(t, filepath.Join(dir, "IMG 1.NEF"), "raw")
	writeFile(t, filepath.Join(dir, "IMG 1.tif"), "tiff")
	writeJPEG(t, filepath.Join(dir, "plain.jpg"), 8, 8, 0)

	renderer := newRecordingRenderer()
	w := newTestWalker(t, root, renderer, func(o *Options) { o.WebRootURL = "https://example.org/photos" })
	if _, err := w.Walk(context.Background()); err != nil {
		t.Fatal(err)
	}

	folder, ok := renderer.rendered("Day 1")
	if !ok {
		t.Fatal("folder not rendered")
	}
	if folder.ParentURL != "https://example.org/photos/" {
		t.Errorf("ParentURL = %s", folder.ParentURL)
	}
	if folder.Title != "/Day 1" || folder.Header != "Day 1" {
		t.Errorf("title/header = %q/%q", folder.Title, folder.Header)
	}

	rec := folder.Images[0]
	want := metadata.ImageRecord{
		Src:  "https://example.org/photos/Day%201/IMG%201.jpg",
		MSrc: "https://example.org/photos/.thumbnails/Day%201/IMG%201.jpg.jpg",
		Raw:  "https://example.org/photos/Day%201/IMG%201.NEF",
		TIFF: "https://example.org/photos/Day%201/IMG%201.tif",
	}
	if rec.Src != want.Src || rec.MSrc != want.MSrc || rec.Raw != want.Raw || rec.TIFF != want.TIFF {
		t.Errorf("links = %+v\nwant %+v", rec, want)
	}
	if plain := folder.Images[1]; plain.Raw != "" || plain.TIFF != "" {
		t.Errorf("plain.jpg should have no companions: %+v", plain)
	}
}

func TestWalkInfoAndLicense(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 8, 8, 0)
	writeFile(t, filepath.Join(root, "info"), "Summer\n\nx\nat the lake\n")
	writeFile(t, filepath.Join(root, "LICENSE"), "CC BY 4.0\n")

	w := newTestWalker(t, root, nil, nil)
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	wantInfo := []string{"Summer", "at the lake"}
	if !reflect.DeepEqual(result.Root.Info, wantInfo) {
		t.Errorf("Info = %q, want %q", result.Root.Info, wantInfo)
	}
	if !reflect.DeepEqual(result.Info[root], wantInfo) {
		t.Errorf("result.Info = %v", result.Info)
	}
	if result.Licenses[root] != "CC BY 4.0\n" || result.Root.License != "CC BY 4.0\n" {
		t.Errorf("license = %q", result.Licenses[root])
	}
}

func TestWalkUnreadableImage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.jpg"), "not a jpeg")
	writeJPEG(t, filepath.Join(root, "good.jpg"), 8, 8, 0)

	w := newTestWalker(t, root, nil, nil)
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("an unreadable image must not fail the walk: %v", err)
	}
	if result.Stats.UnreadableImages != 1 {
		t.Errorf("UnreadableImages = %d, want 1", result.Stats.UnreadableImages)
	}

	cache, _ := metadata.Load(root)
	broken := cache.Images["broken.jpg"]
	if broken == nil || broken.HasDimensions() {
		t.Errorf("broken.jpg should be cached with null dimensions: %+v", broken)
	}
}

func TestWalkCancelled(t *testing.T) {
	t.Run("Before start", func(t *testing.T) {
		root := t.TempDir()
		writeJPEG(t, filepath.Join(root, "a.jpg"), 8, 8, 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w := newTestWalker(t, root, nil, nil)
		result, err := w.Walk(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Walk() error = %v, want context.Canceled", err)
		}
		if result != nil {
			t.Error("no result expected when nothing was visited")
		}
		if exists(metadata.Path(root)) {
			t.Error("nothing should be written")
		}
	})

	t.Run("During walk", func(t *testing.T) {
		root := t.TempDir()
		writeJPEG(t, filepath.Join(root, "a.jpg"), 8, 8, 0)
		mkdir(t, filepath.Join(root, "b"))
		writeJPEG(t, filepath.Join(root, "b", "c", "d.jpg"), 8, 8, 0)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		renderer := newRecordingRenderer()
		w := newTestWalker(t, root, renderer, func(o *Options) {
			o.Progress = func(rel string) {
				if rel == "b" {
					cancel()
				}
			}
		})

		result, err := w.Walk(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Walk() error = %v, want context.Canceled", err)
		}
		if result == nil {
			t.Fatal("partial result expected")
		}
		if _, ok := renderer.rendered(""); ok {
			t.Error("an interrupted folder must not be rendered")
		}
		if !exists(metadata.Path(root)) {
			t.Error("the interrupted folder's cache must still be persisted")
		}
		if exists(metadata.Path(filepath.Join(root, "b", "c"))) {
			t.Error("folders after the interruption must not be visited")
		}
	})
}

func TestNewWalkerErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")

	tests := []struct {
		name string
		root string
	}{
		{"Empty root", ""},
		{"Missing root", filepath.Join(t.TempDir(), "missing")},
		{"Root is a file", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWalker(Options{Root: tt.root}, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNonContentEntriesIgnored(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 8, 8, 0)
	writeJPEG(t, filepath.Join(root, ".hidden.jpg"), 8, 8, 0)
	writeFile(t, filepath.Join(root, "robots.txt"), "")
	writeFile(t, filepath.Join(root, "clip.mov"), "")
	mkdir(t, filepath.Join(root, media.ThumbnailDir))

	w := newTestWalker(t, root, nil, func(o *Options) {
		o.IgnoredExtensions = map[string]bool{".mov": true}
	})
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Root.Images) != 1 || result.Root.Images[0].Name != "a.jpg" {
		t.Errorf("images = %+v", result.Root.Images)
	}
	if len(result.Root.Subfolders) != 0 {
		t.Errorf("dot folders should not be linked: %+v", result.Root.Subfolders)
	}
}
