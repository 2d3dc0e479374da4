package gallery

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"static-gallery/internal/media"
	"static-gallery/internal/mediatypes"
	"static-gallery/internal/metadata"
	"static-gallery/internal/tags"
)

// IndexFileName is the page written into every rendered folder.
const IndexFileName = "index.html"

// Options controls a single gallery build.
type Options struct {
	// Root is the absolute path of the gallery tree.
	Root string
	// WebRootURL prefixes every generated link. It ends in a slash.
	WebRootURL string
	// SiteTitle is the title of the root page.
	SiteTitle string

	ImageExtensions   mediatypes.ExtensionSet
	IgnoredExtensions mediatypes.ExtensionSet
	// ExcludeFolders holds folder names or shell globs matched against the
	// absolute folder path. Excluded folders are linked but not visited.
	ExcludeFolders []string

	RegenerateThumbnails bool
	RereadMetadata       bool
	RereadSidecar        bool
	FancyFolders         bool
	IgnoreOtherFiles     bool
	ReverseSort          bool
	FolderThumbnails     bool

	TagDelimiter string

	// Progress, when set, is called as each folder visit starts.
	Progress func(rel string)
}

func (o *Options) withDefaults() Options {
	opts := *o
	if len(opts.ImageExtensions) == 0 {
		opts.ImageExtensions = mediatypes.NewExtensionSet(mediatypes.DefaultImageExtensions)
	}
	if opts.IgnoredExtensions == nil {
		opts.IgnoredExtensions = mediatypes.ExtensionSet{}
	}
	if opts.WebRootURL == "" {
		opts.WebRootURL = "/"
	}
	if !strings.HasSuffix(opts.WebRootURL, "/") {
		opts.WebRootURL += "/"
	}
	if opts.TagDelimiter == "" {
		opts.TagDelimiter = tags.DefaultDelimiter
	}
	return opts
}

// quotePath escapes each segment of a slash-separated relative path.
func quotePath(rel string) string {
	if rel == "" {
		return ""
	}
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// relPrefix returns the escaped folder path with a trailing slash, or "" for
// the root folder.
func relPrefix(rel string) string {
	if rel == "" {
		return ""
	}
	return quotePath(rel) + "/"
}

func (o *Options) isFileURL() bool {
	return strings.HasPrefix(o.WebRootURL, "file://")
}

// folderURL links to the page of the folder at rel.
func (o *Options) folderURL(rel string) string {
	u := o.WebRootURL + quotePath(rel)
	if o.isFileURL() {
		if rel != "" {
			u += "/"
		}
		u += IndexFileName
	}
	return u
}

// parentURL links to the page above rel. It is empty for the root folder.
func (o *Options) parentURL(rel string) string {
	if rel == "" {
		return ""
	}
	parent := path.Dir(rel)
	if parent == "." {
		parent = ""
	}
	u := o.WebRootURL + relPrefix(parent)
	if o.isFileURL() {
		u += IndexFileName
	}
	return u
}

func (o *Options) imageURL(rel, name string) string {
	return o.WebRootURL + relPrefix(rel) + url.PathEscape(name)
}

func (o *Options) thumbnailURL(rel, name string) string {
	return o.WebRootURL + media.ThumbnailDir + "/" + relPrefix(rel) + url.PathEscape(name) + media.ThumbnailExtension
}

func (o *Options) metadataURL(rel string) string {
	return o.WebRootURL + relPrefix(rel) + metadata.FileName
}

var globCache sync.Map

// globRegexp translates a shell glob into an anchored regexp. Unlike
// path.Match, a star also matches path separators, so "*/private" excludes
// every folder of that name.
func globRegexp(pattern string) *regexp.Regexp {
	if re, ok := globCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := i + 1
			if end < len(runes) && runes[end] == '!' {
				end++
			}
			if end < len(runes) && runes[end] == ']' {
				end++
			}
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				b.WriteString(`\[`)
				continue
			}
			class := strings.ReplaceAll(string(runes[i+1:end]), `\`, `\\`)
			switch {
			case strings.HasPrefix(class, "!"):
				class = "^" + class[1:]
			case strings.HasPrefix(class, "^"), strings.HasPrefix(class, "["):
				// Only "!" negates; a leading caret is literal.
				class = `\` + class
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		re = regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
	}
	globCache.Store(pattern, re)
	return re
}

// excluded reports whether the folder dir named name must not be visited.
func (o *Options) excluded(dir, name string) bool {
	for _, pattern := range o.ExcludeFolders {
		if pattern == name || globRegexp(pattern).MatchString(dir) {
			return true
		}
	}
	return false
}
