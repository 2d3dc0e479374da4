package server

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"static-gallery/internal/logging"
	"static-gallery/internal/media"
	"static-gallery/internal/metadata"
	"static-gallery/internal/metrics"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

// accessLog writes one W3C extended log line per request at debug level,
// or at info level for client and server errors.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		now := time.Now().UTC()
		query := sanitizeLogField(r.URL.RawQuery)
		if query == "" {
			query = "-"
		}
		// date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken
		line := fmt.Sprintf("%s %s %s %s %s %s %d %d %d",
			now.Format("2006-01-02"),
			now.Format("15:04:05"),
			sanitizeLogField(clientIP(r)),
			sanitizeLogField(r.Method),
			sanitizeLogField(r.URL.Path),
			query,
			rec.status,
			rec.bytes,
			time.Since(start).Milliseconds(),
		)
		if rec.status >= http.StatusBadRequest {
			logging.Info("%s", line)
		} else {
			logging.Debug("%s", line)
		}
	})
}

// sanitizeLogField strips control characters so a request cannot forge log lines.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// instrument records request counts and durations. Gallery paths are
// collapsed into a few kinds to bound label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == metricsPath {
			next.ServeHTTP(w, r)
			return
		}

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		kind := pathKind(r.URL.Path)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, kind, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, kind).Observe(time.Since(start).Seconds())
	})
}

// pathKind classifies a request path as health, page, thumbnail, metadata,
// image or other.
func pathKind(p string) string {
	switch {
	case p == healthPath:
		return "health"
	case strings.HasPrefix(p, "/"+media.ThumbnailDir+"/"):
		return "thumbnail"
	case strings.HasSuffix(p, "/"), path.Base(p) == "index.html":
		return "page"
	case path.Base(p) == metadata.FileName:
		return "metadata"
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff", ".bmp":
		return "image"
	}
	return "other"
}
