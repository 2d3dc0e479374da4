// Package memory keeps thumbnail rendering within a container's memory
// limit.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before large allocations:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// Environment variables:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing else
//     is changed.
//
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected by
//     the Kubernetes Downward API.
//
//   - MEMORY_RATIO: share of MEMORY_LIMIT handed to the Go heap, between
//     0.0 and 1.0 (default 0.85). libvips allocates outside the Go heap, so
//     lower this when rendering with the vips backend.
//
// Downward API example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// # Backpressure
//
// A [Monitor] samples heap usage on an interval. Above the critical water
// mark it pauses, and thumbnail workers calling [Monitor.WaitIfPaused]
// block until usage drops below the high water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	renderer.RenderAll(ctx, jobs, media.RenderOptions{Monitor: monitor})
//
// Usage and pause state are exported as static_gallery_memory_* metrics.
package memory
