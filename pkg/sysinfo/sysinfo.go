package sysinfo

import (
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Info is an immutable snapshot of static host facts, collected once per
// benchmark run.
type Info struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Architecture  string  `json:"architecture"`
	CPUModel      string  `json:"cpu_model"`
	CPUCores      int     `json:"cpu_cores"`
	CPUThreads    int     `json:"cpu_threads"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
}

// Collect gathers host facts. Every field degrades independently; a host
// where some fact cannot be determined still yields a usable snapshot.
func Collect() Info {
	info := Info{
		OS:           osDescription(),
		Architecture: runtime.GOARCH,
		CPUModel:     "Unknown",
		CPUThreads:   runtime.NumCPU(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		model, cores, threads := parseCPUInfo(string(data))
		if model != "" {
			info.CPUModel = model
		}
		if cores > 0 {
			info.CPUCores = cores
		}
		if threads > 0 {
			info.CPUThreads = threads
		}
	}
	if info.CPUCores == 0 {
		info.CPUCores = info.CPUThreads
	}

	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		info.TotalMemoryGB = parseMemTotalGB(string(data))
	}

	return info
}

// osDescription combines the platform name with the kernel release,
// e.g. "linux 6.1.0-18-amd64".
func osDescription() string {
	release, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return runtime.GOOS
	}
	return runtime.GOOS + " " + strings.TrimSpace(string(release))
}

// parseCPUInfo extracts the CPU model name, the physical core count and the
// logical thread count from /proc/cpuinfo content. A physical core is a
// distinct (physical id, core id) pair; on systems that do not report those
// fields the core count comes back 0 and the caller falls back to threads.
func parseCPUInfo(content string) (model string, cores, threads int) {
	physical := make(map[string]bool)
	var physID, coreID string

	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "model name":
			if model == "" {
				model = value
			}
		case "processor":
			// Each processor stanza starts here; flush the previous pair.
			if physID != "" || coreID != "" {
				physical[physID+"/"+coreID] = true
				physID, coreID = "", ""
			}
			threads++
		case "physical id":
			physID = value
		case "core id":
			coreID = value
		}
	}
	if physID != "" || coreID != "" {
		physical[physID+"/"+coreID] = true
	}

	return model, len(physical), threads
}

// parseMemTotalGB converts the MemTotal line of /proc/meminfo (reported in
// KiB) to GB with 2-decimal rounding.
func parseMemTotalGB(content string) float64 {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0
		}
		return math.Round(kb/(1024*1024)*100) / 100
	}
	return 0
}
