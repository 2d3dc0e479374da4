package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/gallery"
	"static-gallery/internal/logging"
	"static-gallery/internal/metadata"
	"static-gallery/internal/tags"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.tmpl
var templates embed.FS

const indexTemplate = "index.html.tmpl"

// Site holds the settings shared by every page of a gallery.
type Site struct {
	Title   string
	RootURL string
	Author  string
	Version string
	// TagDelimiter joins hierarchical tag segments in the keywords list.
	TagDelimiter string
}

// Page is the template context of one folder page.
type Page struct {
	Title     string
	Header    string
	SiteTitle string
	RootURL   string
	IsRoot    bool
	// ParentURL is empty on the root page.
	ParentURL  string
	Subfolders []metadata.SubfolderRecord
	Images     []*metadata.ImageRecord
	TagTree    tags.Tree
	Keywords   []string
	Info       []string
	License    string
	Author     string
	Version    string
}

// Renderer writes index pages with the embedded template.
type Renderer struct {
	site Site
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"join":  strings.Join,
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
}

// New parses the page template.
func New(site Site) (*Renderer, error) {
	tmpl, err := template.New(indexTemplate).Funcs(funcs).ParseFS(templates, "templates/"+indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{site: site, tmpl: tmpl}, nil
}

// NewPage builds the template context of folder.
func (r *Renderer) NewPage(folder *gallery.Folder) Page {
	return Page{
		Title:      folder.Title,
		Header:     folder.Header,
		SiteTitle:  r.site.Title,
		RootURL:    r.site.RootURL,
		IsRoot:     folder.IsRoot(),
		ParentURL:  folder.ParentURL,
		Subfolders: folder.Subfolders,
		Images:     folder.Images,
		TagTree:    folder.TagTree,
		Keywords:   folder.TagTree.Leaves(r.site.TagDelimiter),
		Info:       folder.Info,
		License:    folder.License,
		Author:     r.site.Author,
		Version:    r.site.Version,
	}
}

// Execute renders page to w.
func (r *Renderer) Execute(w io.Writer, page Page) error {
	return r.tmpl.ExecuteTemplate(w, indexTemplate, page)
}

// Render writes the index page of folder. The file is replaced atomically
// and left alone when its content would not change.
func (r *Renderer) Render(folder *gallery.Folder) error {
	var buf bytes.Buffer
	if err := r.Execute(&buf, r.NewPage(folder)); err != nil {
		return fmt.Errorf("rendering %s: %w", folder.Path, err)
	}

	path := filepath.Join(folder.Path, gallery.IndexFileName)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, buf.Bytes()) {
		logging.Debug("Page %s unchanged", path)
		return nil
	}
	size := buf.Len()
	if err := filesystem.WriteFileAtomic(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logging.Debug("Wrote %s (%s)", path, humanize.IBytes(uint64(size)))
	return nil
}
