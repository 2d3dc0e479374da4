// Package render turns a gallery folder into its index.html page using an
// embedded html/template. Pages are only rewritten when their content
// changes, so a rebuild of an unchanged tree leaves every file untouched.
package render
