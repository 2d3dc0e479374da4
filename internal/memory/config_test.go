package memory

import (
	"runtime/debug"
	"testing"
)

func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		memoryLimit string
		ratio       string
		wantSource  string
		wantLimit   int64
		wantRatio   float64
	}{
		{"Nothing set", "", "", sourceNone, 0, 0},
		{"Container limit", "1073741824", "", sourceMEMORYLIMIT, 912680550, DefaultMemoryRatio},
		{"Custom ratio", "1000000000", "0.5", sourceMEMORYLIMIT, 500000000, 0.5},
		{"Ratio out of range", "1000000000", "1.5", sourceMEMORYLIMIT, 850000000, DefaultMemoryRatio},
		{"Unparsable ratio", "1000000000", "lots", sourceMEMORYLIMIT, 850000000, DefaultMemoryRatio},
		{"Unparsable limit", "512Mi", "", sourceNone, 0, 0},
		{"Negative limit", "-1", "", sourceNone, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.memoryLimit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			result := ConfigureFromEnv()

			if result.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", result.Source, tt.wantSource)
			}
			if result.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, tt.wantLimit)
			}
			if result.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", result.Ratio, tt.wantRatio)
			}
			if result.Configured != (tt.wantLimit > 0) {
				t.Errorf("Configured = %v", result.Configured)
			}
			if tt.wantLimit > 0 && debug.SetMemoryLimit(-1) != tt.wantLimit {
				t.Errorf("runtime limit = %d, want %d", debug.SetMemoryLimit(-1), tt.wantLimit)
			}
		})
	}
}

func TestConfigureFromEnvHonoursGOMEMLIMIT(t *testing.T) {
	restoreMemoryLimit(t)
	t.Setenv("GOMEMLIMIT", "512MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	result := ConfigureFromEnv()
	if result.Source != sourceGOMEMLIMIT {
		t.Errorf("Source = %q, want %q", result.Source, sourceGOMEMLIMIT)
	}
	if result.ContainerLimit != 0 {
		t.Error("MEMORY_LIMIT must be ignored when GOMEMLIMIT is set")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{10485760, "10 MiB"},
		{1610612736, "1.5 GiB"},
		{-2048, "-2.0 KiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
