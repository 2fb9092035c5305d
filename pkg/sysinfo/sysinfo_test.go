package sysinfo

import (
	"testing"
)

const sampleCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
physical id	: 0
core id		: 0

processor	: 1
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
physical id	: 0
core id		: 1

processor	: 2
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
physical id	: 0
core id		: 0

processor	: 3
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
physical id	: 0
core id		: 1
`

func TestParseCPUInfo(t *testing.T) {
	model, cores, threads := parseCPUInfo(sampleCPUInfo)

	if model != "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz" {
		t.Errorf("model = %q, want the Xeon model string", model)
	}
	if cores != 2 {
		t.Errorf("cores = %d, want 2 (hyperthreaded pairs collapse)", cores)
	}
	if threads != 4 {
		t.Errorf("threads = %d, want 4", threads)
	}
}

func TestParseCPUInfo_NoTopologyFields(t *testing.T) {
	// ARM-style cpuinfo without physical id / core id
	content := "processor\t: 0\nmodel name\t: ARMv8 Processor rev 1\n\nprocessor\t: 1\nmodel name\t: ARMv8 Processor rev 1\n"

	model, cores, threads := parseCPUInfo(content)

	if model != "ARMv8 Processor rev 1" {
		t.Errorf("model = %q, want ARMv8 Processor rev 1", model)
	}
	if threads != 2 {
		t.Errorf("threads = %d, want 2", threads)
	}
	// Both processors share the empty topology pair
	if cores != 1 {
		t.Errorf("cores = %d, want 1", cores)
	}
}

func TestParseCPUInfo_Empty(t *testing.T) {
	model, cores, threads := parseCPUInfo("")

	if model != "" || cores != 0 || threads != 0 {
		t.Errorf("parseCPUInfo(\"\") = (%q, %d, %d), want zero values", model, cores, threads)
	}
}

func TestParseMemTotalGB(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{
			name:    "16 GiB host",
			content: "MemTotal:       16384000 kB\nMemFree:         1024000 kB\n",
			want:    15.63,
		},
		{
			name:    "missing MemTotal",
			content: "MemFree:         1024000 kB\n",
			want:    0,
		},
		{
			name:    "garbage value",
			content: "MemTotal:       lots kB\n",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMemTotalGB(tt.content)
			if got != tt.want {
				t.Errorf("parseMemTotalGB = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	info := Collect()

	if info.CPUThreads <= 0 {
		t.Errorf("CPUThreads = %d, want > 0", info.CPUThreads)
	}
	if info.CPUCores <= 0 {
		t.Errorf("CPUCores = %d, want > 0", info.CPUCores)
	}
	if info.CPUModel == "" {
		t.Error("CPUModel should never be empty; fallback is Unknown")
	}
	if info.Architecture == "" {
		t.Error("Architecture should not be empty")
	}
}
