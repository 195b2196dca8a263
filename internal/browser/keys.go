package browser

import (
	"fmt"
	"unicode/utf8"

	"github.com/chromedp/chromedp/kb"
)

// namedKeys maps Playwright-style key names to the runes chromedp.KeyEvent
// understands.
var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
	"Space":      " ",
}

// keyEvent resolves a key name or a single character.
func keyEvent(key string) (string, error) {
	if k, ok := namedKeys[key]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(key) == 1 {
		return key, nil
	}
	return "", fmt.Errorf("unsupported key %q", key)
}
