// Command static-gallery turns a directory tree of images into a static
// website: one index.html per folder, a JPEG thumbnail per image and a
// .metadata.json cache per folder so later runs only redo what changed.
//
// Usage:
//
//	static-gallery [flags] [root]        build the gallery (same as build)
//	static-gallery build [flags] [root]  build the gallery
//	static-gallery serve [root]          preview a built gallery over HTTP
//	static-gallery config init [path]    write a sample configuration
//	static-gallery version               print build information
//
// Settings come from a TOML file (--config, $STATIC_GALLERY_CONFIG or
// ./static-gallery.toml); flags given on the command line win over it.
//
// A build holds <root>/.lock for its whole duration. A second build on the
// same root fails immediately with exit status 1. SIGINT and SIGTERM stop the
// walk after the current folder and let running thumbnail workers finish.
package main
