package bench

import "testing"

func TestParseMemoryThroughput(t *testing.T) {
	output := `Total operations: 10240 (9016.73 per second)

10240.00 MiB transferred (9016.73 MiB/sec)

General statistics:
    total time:                          1.1343s
`
	got := parseMemoryThroughput(output)
	if got != 9016.73 {
		t.Errorf("parseMemoryThroughput = %v, want 9016.73", got)
	}
}

func TestParseMemoryThroughput_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty output", ""},
		{"transferred without unit", "10240.00 MiB transferred\n"},
		{"unit without transferred", "rate was (9016.73 MiB/sec)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseMemoryThroughput(tt.output); got != 0 {
				t.Errorf("parseMemoryThroughput = %v, want degraded-zero 0", got)
			}
		})
	}
}
