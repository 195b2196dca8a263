package browser

import (
	"testing"

	"github.com/chromedp/chromedp/kb"
)

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"Enter", kb.Enter, false},
		{"Escape", kb.Escape, false},
		{"Space", " ", false},
		{"a", "a", false},
		{"é", "é", false},
		{"Control+A", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := keyEvent(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("keyEvent(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("keyEvent(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
