package human

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func seeded(seed int64) *Config {
	return &Config{Rand: rand.New(rand.NewSource(seed)), Sleep: func(time.Duration) {}}
}

func TestPathEndsOnTarget(t *testing.T) {
	from, to := Point{10, 10}, Point{640, 480}
	path := seeded(7).Path(from, to)
	if len(path) < 6 || len(path) > 31 {
		t.Fatalf("unexpected step count %d", len(path))
	}
	if last := path[len(path)-1]; last != to {
		t.Errorf("path ends at %+v, want %+v", last, to)
	}
	if first := path[0]; first.X < 8 || first.X > 12 || first.Y < 8 || first.Y > 12 {
		t.Errorf("path starts far from origin: %+v", first)
	}
}

func TestPathDeterministicWithSeed(t *testing.T) {
	a := seeded(42).Path(Point{0, 0}, Point{300, 200})
	b := seeded(42).Path(Point{0, 0}, Point{300, 200})
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// replay applies keystrokes the way an input field would.
func replay(keys []Keystroke) string {
	var out []rune
	for _, k := range keys {
		if k.Key == "\b" {
			out = out[:len(out)-1]
			continue
		}
		out = append(out, []rune(k.Key)...)
	}
	return string(out)
}

func TestKeystrokesReplayToText(t *testing.T) {
	text := "this is a very long string to increase the chance of a simulated typo correction"
	for seed := int64(1); seed <= 20; seed++ {
		keys := seeded(seed).Keystrokes(text, false)
		if got := replay(keys); got != text {
			t.Fatalf("seed %d: replay = %q", seed, got)
		}
	}
}

func TestKeystrokesFastIsQuicker(t *testing.T) {
	total := func(keys []Keystroke) time.Duration {
		var d time.Duration
		for _, k := range keys {
			d += k.Pause
		}
		return d
	}
	text := strings.Repeat("abc", 30)
	slow := total(seeded(3).Keystrokes(text, false))
	fast := total(seeded(3).Keystrokes(text, true))
	if fast >= slow {
		t.Errorf("fast typing (%v) not quicker than normal (%v)", fast, slow)
	}
}

func TestType(t *testing.T) {
	SetHumanRandSeed(12345)
	actions := Type("hello", true)
	if len(actions) < 2*len("hello") {
		t.Errorf("expected key and pause per char, got %d actions", len(actions))
	}
}

func TestMouseMoveWithoutBrowser(t *testing.T) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	cfg := seeded(1)
	if err := cfg.MouseMove(ctx, Point{0, 0}, Point{100, 100}); err == nil {
		t.Error("expected an error without a browser")
	}
	if err := cfg.Click(ctx, Point{50, 50}); err == nil {
		t.Error("expected an error without a browser")
	}
}
