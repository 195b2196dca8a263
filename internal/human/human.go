// Package human produces pointer and keyboard input with human-like timing
// and jitter. It backs the humanize option of the chromedp engine.
package human

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

var (
	randMu    sync.Mutex
	humanRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// SetHumanRandSeed makes the package-level helpers deterministic.
func SetHumanRandSeed(seed int64) {
	randMu.Lock()
	humanRand = rand.New(rand.NewSource(seed))
	randMu.Unlock()
}

// Config allows injecting a custom random source for testing
type Config struct {
	Rand *rand.Rand
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// lockedRand serialises access to the shared source; *rand.Rand is not
// safe for concurrent sessions.
type lockedRand struct{}

func (lockedRand) Intn(n int) int {
	randMu.Lock()
	defer randMu.Unlock()
	return humanRand.Intn(n)
}

func (lockedRand) Float64() float64 {
	randMu.Lock()
	defer randMu.Unlock()
	return humanRand.Float64()
}

type source interface {
	Intn(n int) int
	Float64() float64
}

func (c *Config) rng() source {
	if c != nil && c.Rand != nil {
		return c.Rand
	}
	return lockedRand{}
}

func (c *Config) sleep(d time.Duration) {
	if c != nil && c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Point is a viewport coordinate.
type Point struct{ X, Y float64 }

// Path plans a cubic Bézier pointer path from one point to another with
// jittered control points. It always ends exactly on the target.
func (c *Config) Path(from, to Point) []Point {
	rng := c.rng()
	distance := math.Hypot(to.X-from.X, to.Y-from.Y)
	duration := 100 + (distance/2000)*200 + float64(rng.Intn(100))

	steps := int(duration / 20)
	steps = max(5, min(steps, 30))

	cp1 := Point{
		from.X + (to.X-from.X)*0.25 + (rng.Float64()-0.5)*50,
		from.Y + (to.Y-from.Y)*0.25 + (rng.Float64()-0.5)*50,
	}
	cp2 := Point{
		from.X + (to.X-from.X)*0.75 + (rng.Float64()-0.5)*50,
		from.Y + (to.Y-from.Y)*0.75 + (rng.Float64()-0.5)*50,
	}

	path := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		p := Point{
			u*u*u*from.X + 3*u*u*t*cp1.X + 3*u*t*t*cp2.X + t*t*t*to.X,
			u*u*u*from.Y + 3*u*u*t*cp1.Y + 3*u*t*t*cp2.Y + t*t*t*to.Y,
		}
		if i < steps {
			p.X += (rng.Float64() - 0.5) * 2
			p.Y += (rng.Float64() - 0.5) * 2
		}
		path = append(path, p)
	}
	return path
}

// MouseMove walks the pointer along Path, roughly one step per frame.
func (c *Config) MouseMove(ctx context.Context, from, to Point) error {
	rng := c.rng()
	for _, p := range c.Path(from, to) {
		if err := dispatchMouse(ctx, input.MouseMoved, p, 0); err != nil {
			return err
		}
		c.sleep(time.Duration(16+rng.Intn(8)) * time.Millisecond)
	}
	return nil
}

// Click approaches the target from a random nearby point, then presses and
// releases with a short human dwell.
func (c *Config) Click(ctx context.Context, at Point) error {
	rng := c.rng()
	start := Point{
		at.X + (rng.Float64()-0.5)*200 + 50,
		at.Y + (rng.Float64()-0.5)*200 + 50,
	}
	if math.Hypot(start.X-at.X, start.Y-at.Y) > 30 {
		if err := dispatchMouse(ctx, input.MouseMoved, start, 0); err != nil {
			return err
		}
		if err := c.MouseMove(ctx, start, at); err != nil {
			return err
		}
	}

	c.sleep(time.Duration(50+rng.Intn(150)) * time.Millisecond)
	if err := dispatchMouse(ctx, input.MousePressed, at, 1); err != nil {
		return err
	}
	c.sleep(time.Duration(30+rng.Intn(90)) * time.Millisecond)

	release := Point{at.X + (rng.Float64()-0.5)*2, at.Y + (rng.Float64()-0.5)*2}
	return dispatchMouse(ctx, input.MouseReleased, release, 1)
}

func dispatchMouse(ctx context.Context, typ input.MouseType, p Point, clicks int64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		ev := input.DispatchMouseEvent(typ, p.X, p.Y)
		if clicks > 0 {
			ev = ev.WithButton(input.Left).WithClickCount(clicks)
		}
		return ev.Do(ctx)
	}))
}

// Keystroke is one planned key press and the pause after it.
type Keystroke struct {
	Key   string
	Pause time.Duration
}

// Keystrokes plans typing text, including the occasional typo that is
// corrected with a backspace. Replaying the keys always yields text.
func (c *Config) Keystrokes(text string, fast bool) []Keystroke {
	rng := c.rng()
	baseDelay := 80
	if fast {
		baseDelay = 40
	}

	chars := []rune(text)
	keys := make([]Keystroke, 0, len(chars))
	for i, char := range chars {
		delay := baseDelay + rng.Intn(baseDelay/2)
		if rng.Float64() < 0.05 {
			delay += rng.Intn(500)
		}
		if i > 0 && chars[i-1] == char {
			delay /= 2
		}
		keys = append(keys, Keystroke{string(char), time.Duration(delay) * time.Millisecond})

		if rng.Float64() < 0.03 && i < len(chars)-1 {
			wrong := string(rune('a' + rng.Intn(26)))
			keys = append(keys,
				Keystroke{wrong, time.Duration(50+rng.Intn(100)) * time.Millisecond},
				Keystroke{"\b", time.Duration(30+rng.Intn(70)) * time.Millisecond},
			)
		}
	}
	return keys
}

// TypeWithConfig turns Keystrokes into chromedp actions.
func TypeWithConfig(text string, fast bool, cfg *Config) []chromedp.Action {
	keys := cfg.Keystrokes(text, fast)
	actions := make([]chromedp.Action, 0, 2*len(keys))
	for _, k := range keys {
		actions = append(actions, chromedp.KeyEvent(k.Key), chromedp.Sleep(k.Pause))
	}
	return actions
}

func Type(text string, fast bool) []chromedp.Action {
	return TypeWithConfig(text, fast, nil)
}

func MouseMove(ctx context.Context, fromX, fromY, toX, toY float64) error {
	return (*Config)(nil).MouseMove(ctx, Point{fromX, fromY}, Point{toX, toY})
}

func Click(ctx context.Context, x, y float64) error {
	return (*Config)(nil).Click(ctx, Point{x, y})
}
