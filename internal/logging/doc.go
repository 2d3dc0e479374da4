// Package logging provides the leveled printf logger used by every stage of
// a gallery build.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The starting level comes from DEBUG or LOG_LEVEL in the
// environment and may be replaced from configuration with SetLevel.
// SetPrefix tags each line with the build's run id.
package logging
