package shared

import "testing"

func TestNewDatabase(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("failed to read busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}
}

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos string
		name string
	}{
		{goos: "darwin", name: "open"},
		{goos: "linux", name: "xdg-open"},
		{goos: "windows", name: "cmd"},
		{goos: "plan9", name: ""},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := browserCommand(tt.goos, "https://example.com")
			if name != tt.name {
				t.Errorf("browserCommand(%s) = %v, want %v", tt.goos, name, tt.name)
			}
			if name != "" && args[len(args)-1] != "https://example.com" {
				t.Errorf("expected the URL as the final argument, got %v", args)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}

	b, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}
	if a == b {
		t.Error("consecutive state tokens should differ")
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "-"},
		{name: "under a minute", seconds: 45, want: "0:45"},
		{name: "padded seconds", seconds: 125, want: "2:05"},
		{name: "long track", seconds: 3671, want: "61:11"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.seconds)
			if got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestVisibilityString(t *testing.T) {
	if got := VisibilityString(true); got != "Public" {
		t.Errorf("VisibilityString(true) = %v, want Public", got)
	}
	if got := VisibilityString(false); got != "Private" {
		t.Errorf("VisibilityString(false) = %v, want Private", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"a": 1}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(pretty) == string(compact) {
		t.Error("pretty output should be indented")
	}
}
