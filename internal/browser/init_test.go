package browser

import (
	"testing"

	"github.com/pinchtab/pagewright/internal/config"
)

func TestParseExtraFlags(t *testing.T) {
	got := parseExtraFlags("--disable-gpu --lang=de-DE  -- --proxy-server=http://127.0.0.1:8080")
	want := map[string]any{
		"disable-gpu":  true,
		"lang":         "de-DE",
		"proxy-server": "http://127.0.0.1:8080",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("flag %s = %v, want %v", k, got[k], v)
		}
	}
	if len(parseExtraFlags("")) != 0 {
		t.Error("empty string should yield no flags")
	}
}

func TestWindowSize(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{0, 0, 1920, 1080},
		{1280, 0, 1280, 1080},
		{800, 600, 800, 600},
		{-1, -1, 1920, 1080},
	}
	for _, tt := range tests {
		w, h := windowSize(&config.RuntimeConfig{WindowWidth: tt.w, WindowHeight: tt.h})
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("windowSize(%d,%d) = %d,%d, want %d,%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestAllocatorOptionsGrowWithConfig(t *testing.T) {
	base := len(allocatorOptions(&config.RuntimeConfig{Headless: true}))
	more := len(allocatorOptions(&config.RuntimeConfig{
		Headless:         true,
		ChromeBinary:     "/usr/bin/chromium",
		ChromeExtraFlags: "--disable-gpu --lang=en-US",
	}))
	if more != base+3 {
		t.Errorf("expected binary plus two extra flags on top of %d options, got %d", base, more)
	}
}
