// Package media reads image metadata and renders thumbnails.
//
// Inspect extracts display dimensions, normalized EXIF fields (via goexif)
// and XMP keywords and titles, preferring an <image>.xmp sidecar over the
// packet embedded in the image. Renderer turns an image into a JPEG
// thumbnail with either the pure-Go imaging backend or libvips, and
// RenderAll drains a queue of Jobs on a bounded worker pool.
package media
