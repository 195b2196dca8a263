package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, "PAGEWRIGHT_") || k == "CDP_URL" || k == "CHROME_BINARY" || k == "CHROME_FLAGS" {
			t.Setenv(k, "")
			_ = os.Unsetenv(k)
		}
	}
	t.Setenv("PAGEWRIGHT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
}

func TestEnvOr(t *testing.T) {
	key := "PAGEWRIGHT_TEST_ENV"
	fallback := "default"

	_ = os.Unsetenv(key)
	if got := envOr(key, fallback); got != fallback {
		t.Errorf("envOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "set")
	if got := envOr(key, fallback); got != "set" {
		t.Errorf("envOr() = %v, want %v", got, "set")
	}
}

func TestEnvIntOr(t *testing.T) {
	key := "PAGEWRIGHT_TEST_INT"
	fallback := 42

	_ = os.Unsetenv(key)
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "100")
	if got := envIntOr(key, fallback); got != 100 {
		t.Errorf("envIntOr() = %v, want %v", got, 100)
	}

	t.Setenv(key, "invalid")
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}
}

func TestEnvBoolOr(t *testing.T) {
	key := "PAGEWRIGHT_TEST_BOOL"
	fallback := true

	_ = os.Unsetenv(key)
	if got := envBoolOr(key, fallback); got != fallback {
		t.Errorf("envBoolOr() = %v, want %v", got, fallback)
	}

	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"yes", true}, {"on", true},
		{"0", false}, {"false", false}, {"no", false}, {"off", false},
		{"garbage", true},
	}

	for _, tt := range tests {
		t.Setenv(key, tt.val)
		if got := envBoolOr(key, fallback); got != tt.want {
			t.Errorf("envBoolOr(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestEnvDurationOr(t *testing.T) {
	key := "PAGEWRIGHT_TEST_DURATION"
	fallback := 3 * time.Second

	tests := []struct {
		val  string
		want time.Duration
	}{
		{"", fallback},
		{"15", 15 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"0", fallback},
		{"-2s", fallback},
		{"soon", fallback},
	}
	for _, tt := range tests {
		t.Setenv(key, tt.val)
		if got := envDurationOr(key, fallback); got != tt.want {
			t.Errorf("envDurationOr(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   string
	}{
		{"", "(none)"},
		{"learning", "***"},
		{"very-long-token-secret", "very...cret"},
	}

	for _, tt := range tests {
		if got := MaskSecret(tt.secret); got != tt.want {
			t.Errorf("MaskSecret(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg := Load()
	if cfg.Driver != DriverChromedp {
		t.Errorf("default Driver = %v, want %v", cfg.Driver, DriverChromedp)
	}
	if !cfg.Headless {
		t.Error("default Headless should be true")
	}
	if cfg.ActionTimeout != 30*time.Second {
		t.Errorf("default ActionTimeout = %v, want 30s", cfg.ActionTimeout)
	}
	if cfg.WindowWidth != 1920 || cfg.WindowHeight != 1080 {
		t.Errorf("default window = %dx%d, want 1920x1080", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.Sites.Todo != "https://demo.playwright.dev/todomvc" {
		t.Errorf("default todo site = %v", cfg.Sites.Todo)
	}
	if cfg.Browser != BrowserChromium || cfg.Trace {
		t.Errorf("default browser = %v trace = %v, want chromium without trace", cfg.Browser, cfg.Trace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PAGEWRIGHT_DRIVER", DriverPlaywright)
	t.Setenv("PAGEWRIGHT_TIMEOUT", "7")
	t.Setenv("PAGEWRIGHT_TODO_URL", "http://127.0.0.1:8080/")
	t.Setenv("PAGEWRIGHT_BROWSER", BrowserFirefox)
	t.Setenv("PAGEWRIGHT_TRACE", "1")

	cfg := Load()
	if cfg.Browser != BrowserFirefox || !cfg.Trace {
		t.Errorf("env browser = %v trace = %v, want firefox with trace", cfg.Browser, cfg.Trace)
	}
	if cfg.Driver != DriverPlaywright {
		t.Errorf("env Driver = %v, want %v", cfg.Driver, DriverPlaywright)
	}
	if cfg.ActionTimeout != 7*time.Second {
		t.Errorf("env ActionTimeout = %v, want 7s", cfg.ActionTimeout)
	}
	if cfg.Sites.Todo != "http://127.0.0.1:8080/" {
		t.Errorf("env todo site = %v", cfg.Sites.Todo)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	fc := DefaultFileConfig()
	if fc.Driver != DriverChromedp {
		t.Errorf("DefaultFileConfig.Driver = %v, want %v", fc.Driver, DriverChromedp)
	}
	if *fc.Headless != true {
		t.Errorf("DefaultFileConfig.Headless = %v, want true", *fc.Headless)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("PAGEWRIGHT_CONFIG", configPath)

	configData := `{
		"driver": "playwright",
		"headless": false,
		"timeoutSec": 60,
		"docsUrl": "http://docs.local/",
		"browser": "webkit",
		"trace": true
	}`
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.Driver != DriverPlaywright {
		t.Errorf("file Driver = %v, want playwright", cfg.Driver)
	}
	if cfg.Headless != false {
		t.Errorf("file Headless = %v, want false", cfg.Headless)
	}
	if cfg.ActionTimeout != 60*time.Second {
		t.Errorf("file ActionTimeout = %v, want 60s", cfg.ActionTimeout)
	}
	if cfg.Sites.Docs != "http://docs.local/" {
		t.Errorf("file docs site = %v", cfg.Sites.Docs)
	}
	if cfg.Browser != BrowserWebKit || !cfg.Trace {
		t.Errorf("file browser = %v trace = %v, want webkit with trace", cfg.Browser, cfg.Trace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("file config should validate: %v", err)
	}
}

func TestLoadConfigYAMLFileUnderEnv(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("PAGEWRIGHT_CONFIG", configPath)
	t.Setenv("PAGEWRIGHT_PARALLEL", "2")

	configData := "parallel: 6\nexpectSec: 9\nshopUser: someone\n"
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.Parallel != 2 {
		t.Errorf("env should win over file: Parallel = %d, want 2", cfg.Parallel)
	}
	if cfg.ExpectTimeout != 9*time.Second {
		t.Errorf("yaml ExpectTimeout = %v, want 9s", cfg.ExpectTimeout)
	}
	if cfg.ShopUser != "someone" {
		t.Errorf("yaml ShopUser = %v, want someone", cfg.ShopUser)
	}
}

func TestReadFileConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFileConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"config.json", "config.yaml"} {
		path := filepath.Join(dir, "nested", name)
		if err := WriteDefault(path, false); err != nil {
			t.Fatalf("WriteDefault(%s): %v", name, err)
		}
		fc, err := ReadFileConfig(path)
		if err != nil {
			t.Fatalf("read back %s: %v", name, err)
		}
		if fc.TimeoutSec != 30 || fc.Driver != DriverChromedp {
			t.Errorf("%s round trip lost fields: %+v", name, fc)
		}
		if err := WriteDefault(path, false); err == nil {
			t.Errorf("%s: expected refusal to overwrite", name)
		}
		if err := WriteDefault(path, true); err != nil {
			t.Errorf("%s: overwrite: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() *RuntimeConfig {
		return &RuntimeConfig{
			Driver:          DriverChromedp,
			ActionTimeout:   time.Second,
			NavigateTimeout: time.Second,
			ExpectTimeout:   time.Second,
			Parallel:        2,
			MaxSessions:     4,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*RuntimeConfig)
		wantErr bool
	}{
		{"ok", func(*RuntimeConfig) {}, false},
		{"unknown driver", func(c *RuntimeConfig) { c.Driver = "selenium" }, true},
		{"zero timeout", func(c *RuntimeConfig) { c.ExpectTimeout = 0 }, true},
		{"no parallelism", func(c *RuntimeConfig) { c.Parallel = 0 }, true},
		{"sessions below parallel", func(c *RuntimeConfig) { c.MaxSessions = 1 }, true},
		{"unbounded sessions", func(c *RuntimeConfig) { c.MaxSessions = 0 }, false},
		{"chromium on chromedp", func(c *RuntimeConfig) { c.Browser = BrowserChromium }, false},
		{"firefox on chromedp", func(c *RuntimeConfig) { c.Browser = BrowserFirefox }, true},
		{"webkit on playwright", func(c *RuntimeConfig) { c.Driver, c.Browser = DriverPlaywright, BrowserWebKit }, false},
		{"firefox over cdp", func(c *RuntimeConfig) {
			c.Driver, c.Browser, c.CdpURL = DriverPlaywright, BrowserFirefox, "ws://127.0.0.1:9222"
		}, true},
		{"unknown browser", func(c *RuntimeConfig) { c.Driver, c.Browser = DriverPlaywright, "opera" }, true},
		{"trace on chromedp", func(c *RuntimeConfig) { c.Trace = true }, true},
		{"trace on playwright", func(c *RuntimeConfig) { c.Driver, c.Trace = DriverPlaywright, true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDescribeMasksPassword(t *testing.T) {
	cfg := &RuntimeConfig{ShopUser: "shopper", ShopPassword: "supersecretpassword"}
	var buf bytes.Buffer
	cfg.Describe(&buf)
	out := buf.String()
	if strings.Contains(out, "supersecretpassword") {
		t.Error("password should be masked")
	}
	if !strings.Contains(out, "shopper") {
		t.Error("user should be shown")
	}
}
