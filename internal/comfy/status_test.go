package comfy

import (
	"testing"

	"rockstar/internal/domain"
)

func TestNormalizeStatusSynonyms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Status
	}{
		{name: "success", raw: "success", want: domain.StatusSuccess},
		{name: "completed", raw: "completed", want: domain.StatusSuccess},
		{name: "succeeded", raw: "succeeded", want: domain.StatusSuccess},
		{name: "queued passes through", raw: "queued", want: domain.StatusQueued},
		{name: "running passes through", raw: "running", want: domain.StatusRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, url := Normalize(RunState{Status: tt.raw})
			if got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if url != "" {
				t.Fatalf("unexpected url %q", url)
			}
		})
	}
}

func TestNormalizeURLPresenceDominatesRunningStatus(t *testing.T) {
	state := RunState{
		Status:  "running",
		Outputs: []Output{{URL: "https://x/y.jpg"}},
	}
	got, url := Normalize(state)
	if got != domain.StatusSuccess {
		t.Fatalf("status = %q, want success", got)
	}
	if url != "https://x/y.jpg" {
		t.Fatalf("url = %q", url)
	}
}

func TestNormalizeFailedDominatesURLPresence(t *testing.T) {
	state := RunState{
		Status:  "failed",
		Outputs: []Output{{URL: "https://x/y.jpg"}},
	}
	got, _ := Normalize(state)
	if got != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", got)
	}
}

func TestExtractOutputURLPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		outputs []Output
		want    string
	}{
		{
			name:    "direct url wins over nested images",
			outputs: []Output{{URL: "https://x/direct.png", Images: []OutputImage{{URL: "https://x/nested.png"}}}},
			want:    "https://x/direct.png",
		},
		{
			name:    "nested images",
			outputs: []Output{{Images: []OutputImage{{URL: "https://x/nested.png"}}}},
			want:    "https://x/nested.png",
		},
		{
			name:    "data images",
			outputs: []Output{{Data: &OutputData{Images: []OutputImage{{URL: "https://x/data-img.png"}}}}},
			want:    "https://x/data-img.png",
		},
		{
			name:    "data url",
			outputs: []Output{{Data: &OutputData{URL: "https://x/data.png"}}},
			want:    "https://x/data.png",
		},
		{
			name:    "data images win over data url",
			outputs: []Output{{Data: &OutputData{URL: "https://x/data.png", Images: []OutputImage{{URL: "https://x/data-img.png"}}}}},
			want:    "https://x/data-img.png",
		},
		{
			name:    "no match",
			outputs: []Output{{}},
			want:    "",
		},
		{
			name:    "empty outputs",
			outputs: nil,
			want:    "",
		},
		{
			name:    "only first element considered",
			outputs: []Output{{}, {URL: "https://x/second.png"}},
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractOutputURL(tt.outputs); got != tt.want {
				t.Fatalf("ExtractOutputURL = %q, want %q", got, tt.want)
			}
		})
	}
}
