package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

// Browsers the playwright driver can launch. chromedp only drives Chromium.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// Sites holds the entry URLs of the remote applications the scenarios drive.
type Sites struct {
	Todo string
	Shop string
	Docs string
	API  string
}

type RuntimeConfig struct {
	Driver           string
	Browser          string
	Headless         bool
	CdpURL           string
	ChromeBinary     string
	ChromeExtraFlags string
	ChromeVersion    string
	UserAgent        string
	WindowWidth      int
	WindowHeight     int
	NoAnimations     bool
	BlockAds         bool
	BlockImages      bool
	BlockMedia       bool
	Humanize         bool
	Trace            bool
	MaxSessions      int
	Parallel         int
	ArtifactDir      string
	LogLevel         string
	ActionTimeout    time.Duration
	NavigateTimeout  time.Duration
	ExpectTimeout    time.Duration
	ShutdownTimeout  time.Duration
	Sites            Sites
	ShopUser         string
	ShopPassword     string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envDurationOr accepts Go durations ("1500ms") or bare seconds ("15").
func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

// DefaultConfigPath is where `pagewright config init` writes and Load reads
// when PAGEWRIGHT_CONFIG is unset.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".pagewright", "config.json")
}

// FileConfig is the on-disk shape. JSON and YAML files are both accepted,
// picked by extension.
type FileConfig struct {
	Driver        string `json:"driver,omitempty" yaml:"driver,omitempty"`
	Browser       string `json:"browser,omitempty" yaml:"browser,omitempty"`
	Headless      *bool  `json:"headless,omitempty" yaml:"headless,omitempty"`
	CdpURL        string `json:"cdpUrl,omitempty" yaml:"cdpUrl,omitempty"`
	ChromeBinary  string `json:"chromeBinary,omitempty" yaml:"chromeBinary,omitempty"`
	UserAgent     string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	WindowWidth   int    `json:"windowWidth,omitempty" yaml:"windowWidth,omitempty"`
	WindowHeight  int    `json:"windowHeight,omitempty" yaml:"windowHeight,omitempty"`
	NoAnimations  bool   `json:"noAnimations,omitempty" yaml:"noAnimations,omitempty"`
	BlockAds      bool   `json:"blockAds,omitempty" yaml:"blockAds,omitempty"`
	Humanize      bool   `json:"humanize,omitempty" yaml:"humanize,omitempty"`
	Trace         bool   `json:"trace,omitempty" yaml:"trace,omitempty"`
	MaxSessions   *int   `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
	Parallel      *int   `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	ArtifactDir   string `json:"artifactDir,omitempty" yaml:"artifactDir,omitempty"`
	TimeoutSec    int    `json:"timeoutSec,omitempty" yaml:"timeoutSec,omitempty"`
	NavigateSec   int    `json:"navigateSec,omitempty" yaml:"navigateSec,omitempty"`
	ExpectSec     int    `json:"expectSec,omitempty" yaml:"expectSec,omitempty"`
	TodoURL       string `json:"todoUrl,omitempty" yaml:"todoUrl,omitempty"`
	ShopURL       string `json:"shopUrl,omitempty" yaml:"shopUrl,omitempty"`
	DocsURL       string `json:"docsUrl,omitempty" yaml:"docsUrl,omitempty"`
	APIURL        string `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	ShopUser      string `json:"shopUser,omitempty" yaml:"shopUser,omitempty"`
	ShopPassword  string `json:"shopPassword,omitempty" yaml:"shopPassword,omitempty"`
	ChromeVersion string `json:"chromeVersion,omitempty" yaml:"chromeVersion,omitempty"`
}

// ReadFileConfig parses path as YAML when it ends in .yaml/.yml and as JSON
// otherwise.
func ReadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func Load() *RuntimeConfig {
	cfg := &RuntimeConfig{
		Driver:           envOr("PAGEWRIGHT_DRIVER", DriverChromedp),
		Browser:          envOr("PAGEWRIGHT_BROWSER", BrowserChromium),
		Headless:         envBoolOr("PAGEWRIGHT_HEADLESS", true),
		CdpURL:           os.Getenv("CDP_URL"),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		ChromeVersion:    envOr("PAGEWRIGHT_CHROME_VERSION", "144.0.7559.133"),
		UserAgent:        os.Getenv("PAGEWRIGHT_USER_AGENT"),
		WindowWidth:      envIntOr("PAGEWRIGHT_WINDOW_WIDTH", 1920),
		WindowHeight:     envIntOr("PAGEWRIGHT_WINDOW_HEIGHT", 1080),
		NoAnimations:     envBoolOr("PAGEWRIGHT_NO_ANIMATIONS", false),
		BlockAds:         envBoolOr("PAGEWRIGHT_BLOCK_ADS", false),
		BlockImages:      envBoolOr("PAGEWRIGHT_BLOCK_IMAGES", false),
		BlockMedia:       envBoolOr("PAGEWRIGHT_BLOCK_MEDIA", false),
		Humanize:         envBoolOr("PAGEWRIGHT_HUMANIZE", false),
		Trace:            envBoolOr("PAGEWRIGHT_TRACE", false),
		MaxSessions:      envIntOr("PAGEWRIGHT_MAX_SESSIONS", 8),
		Parallel:         envIntOr("PAGEWRIGHT_PARALLEL", 4),
		ArtifactDir:      envOr("PAGEWRIGHT_ARTIFACT_DIR", "test-results"),
		LogLevel:         envOr("PAGEWRIGHT_LOG_LEVEL", "info"),
		ActionTimeout:    envDurationOr("PAGEWRIGHT_TIMEOUT", 30*time.Second),
		NavigateTimeout:  envDurationOr("PAGEWRIGHT_NAV_TIMEOUT", 30*time.Second),
		ExpectTimeout:    envDurationOr("PAGEWRIGHT_EXPECT_TIMEOUT", 5*time.Second),
		ShutdownTimeout:  10 * time.Second,
		Sites: Sites{
			Todo: envOr("PAGEWRIGHT_TODO_URL", "https://demo.playwright.dev/todomvc"),
			Shop: envOr("PAGEWRIGHT_SHOP_URL", "https://rahulshettyacademy.com/loginpagePractise/"),
			Docs: envOr("PAGEWRIGHT_DOCS_URL", "https://playwright.dev/"),
			API:  envOr("PAGEWRIGHT_API_URL", "https://jsonplaceholder.typicode.com"),
		},
		ShopUser:     envOr("PAGEWRIGHT_SHOP_USER", "rahulshettyacademy"),
		ShopPassword: envOr("PAGEWRIGHT_SHOP_PASSWORD", "learning"),
	}

	configPath := envOr("PAGEWRIGHT_CONFIG", DefaultConfigPath())

	fc, err := ReadFileConfig(configPath)
	if err != nil {
		return cfg
	}
	cfg.apply(fc)
	return cfg
}

// apply layers file values under the environment: a field set in the file
// only wins when its env var is unset.
func (c *RuntimeConfig) apply(fc FileConfig) {
	unset := func(key string) bool { return os.Getenv(key) == "" }

	if fc.Driver != "" && unset("PAGEWRIGHT_DRIVER") {
		c.Driver = fc.Driver
	}
	if fc.Browser != "" && unset("PAGEWRIGHT_BROWSER") {
		c.Browser = fc.Browser
	}
	if fc.Headless != nil && unset("PAGEWRIGHT_HEADLESS") {
		c.Headless = *fc.Headless
	}
	if fc.CdpURL != "" && unset("CDP_URL") {
		c.CdpURL = fc.CdpURL
	}
	if fc.ChromeBinary != "" && unset("CHROME_BINARY") {
		c.ChromeBinary = fc.ChromeBinary
	}
	if fc.ChromeVersion != "" && unset("PAGEWRIGHT_CHROME_VERSION") {
		c.ChromeVersion = fc.ChromeVersion
	}
	if fc.UserAgent != "" && unset("PAGEWRIGHT_USER_AGENT") {
		c.UserAgent = fc.UserAgent
	}
	if fc.WindowWidth > 0 && unset("PAGEWRIGHT_WINDOW_WIDTH") {
		c.WindowWidth = fc.WindowWidth
	}
	if fc.WindowHeight > 0 && unset("PAGEWRIGHT_WINDOW_HEIGHT") {
		c.WindowHeight = fc.WindowHeight
	}
	if fc.NoAnimations && unset("PAGEWRIGHT_NO_ANIMATIONS") {
		c.NoAnimations = true
	}
	if fc.BlockAds && unset("PAGEWRIGHT_BLOCK_ADS") {
		c.BlockAds = true
	}
	if fc.Humanize && unset("PAGEWRIGHT_HUMANIZE") {
		c.Humanize = true
	}
	if fc.Trace && unset("PAGEWRIGHT_TRACE") {
		c.Trace = true
	}
	if fc.MaxSessions != nil && unset("PAGEWRIGHT_MAX_SESSIONS") {
		c.MaxSessions = *fc.MaxSessions
	}
	if fc.Parallel != nil && unset("PAGEWRIGHT_PARALLEL") {
		c.Parallel = *fc.Parallel
	}
	if fc.ArtifactDir != "" && unset("PAGEWRIGHT_ARTIFACT_DIR") {
		c.ArtifactDir = fc.ArtifactDir
	}
	if fc.TimeoutSec > 0 && unset("PAGEWRIGHT_TIMEOUT") {
		c.ActionTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}
	if fc.NavigateSec > 0 && unset("PAGEWRIGHT_NAV_TIMEOUT") {
		c.NavigateTimeout = time.Duration(fc.NavigateSec) * time.Second
	}
	if fc.ExpectSec > 0 && unset("PAGEWRIGHT_EXPECT_TIMEOUT") {
		c.ExpectTimeout = time.Duration(fc.ExpectSec) * time.Second
	}
	if fc.TodoURL != "" && unset("PAGEWRIGHT_TODO_URL") {
		c.Sites.Todo = fc.TodoURL
	}
	if fc.ShopURL != "" && unset("PAGEWRIGHT_SHOP_URL") {
		c.Sites.Shop = fc.ShopURL
	}
	if fc.DocsURL != "" && unset("PAGEWRIGHT_DOCS_URL") {
		c.Sites.Docs = fc.DocsURL
	}
	if fc.APIURL != "" && unset("PAGEWRIGHT_API_URL") {
		c.Sites.API = fc.APIURL
	}
	if fc.ShopUser != "" && unset("PAGEWRIGHT_SHOP_USER") {
		c.ShopUser = fc.ShopUser
	}
	if fc.ShopPassword != "" && unset("PAGEWRIGHT_SHOP_PASSWORD") {
		c.ShopPassword = fc.ShopPassword
	}
}

// BrowserName is the browser to launch; unset means Chromium.
func (c *RuntimeConfig) BrowserName() string {
	if c.Browser == "" {
		return BrowserChromium
	}
	return c.Browser
}

// Validate reports configuration that cannot drive a run.
func (c *RuntimeConfig) Validate() error {
	switch c.Driver {
	case DriverChromedp, DriverPlaywright:
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverChromedp, DriverPlaywright)
	}
	switch b := c.BrowserName(); b {
	case BrowserChromium:
	case BrowserFirefox, BrowserWebKit:
		if c.Driver != DriverPlaywright {
			return fmt.Errorf("browser %q needs driver %s; %s only drives %s", b, DriverPlaywright, c.Driver, BrowserChromium)
		}
		if c.CdpURL != "" {
			return fmt.Errorf("browser %q cannot attach over CDP", b)
		}
	default:
		return fmt.Errorf("unknown browser %q (want %s, %s or %s)", b, BrowserChromium, BrowserFirefox, BrowserWebKit)
	}
	if c.Trace && c.Driver != DriverPlaywright {
		return fmt.Errorf("tracing needs driver %s", DriverPlaywright)
	}
	if c.ActionTimeout <= 0 || c.NavigateTimeout <= 0 || c.ExpectTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive (action=%v navigate=%v expect=%v)",
			c.ActionTimeout, c.NavigateTimeout, c.ExpectTimeout)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.MaxSessions > 0 && c.MaxSessions < c.Parallel {
		return fmt.Errorf("maxSessions (%d) is below parallel (%d)", c.MaxSessions, c.Parallel)
	}
	return nil
}

func DefaultFileConfig() FileConfig {
	h := true
	sessions, parallel := 8, 4
	return FileConfig{
		Driver:       DriverChromedp,
		Browser:      BrowserChromium,
		Headless:     &h,
		WindowWidth:  1920,
		WindowHeight: 1080,
		MaxSessions:  &sessions,
		Parallel:     &parallel,
		ArtifactDir:  "test-results",
		TimeoutSec:   30,
		NavigateSec:  30,
		ExpectSec:    5,
		TodoURL:      "https://demo.playwright.dev/todomvc",
		ShopURL:      "https://rahulshettyacademy.com/loginpagePractise/",
		DocsURL:      "https://playwright.dev/",
		APIURL:       "https://jsonplaceholder.typicode.com",
	}
}

// WriteDefault writes DefaultFileConfig to path, as YAML for .yaml/.yml.
// An existing file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	fc := DefaultFileConfig()
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(fc)
	default:
		data, err = json.MarshalIndent(fc, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Describe prints the effective configuration in the layout of `config show`.
func (c *RuntimeConfig) Describe(w io.Writer) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintf(w, "  Driver:      %s\n", c.Driver)
	fmt.Fprintf(w, "  Browser:     %s\n", c.BrowserName())
	fmt.Fprintf(w, "  Headless:    %v\n", c.Headless)
	fmt.Fprintf(w, "  Trace:       %v\n", c.Trace)
	fmt.Fprintf(w, "  CDP URL:     %s\n", orNone(c.CdpURL))
	fmt.Fprintf(w, "  Chrome:      %s\n", orNone(c.ChromeBinary))
	fmt.Fprintf(w, "  Window:      %dx%d\n", c.WindowWidth, c.WindowHeight)
	fmt.Fprintf(w, "  Parallel:    %d (max sessions %d)\n", c.Parallel, c.MaxSessions)
	fmt.Fprintf(w, "  Artifacts:   %s\n", c.ArtifactDir)
	fmt.Fprintf(w, "  Timeouts:    action=%v navigate=%v expect=%v\n", c.ActionTimeout, c.NavigateTimeout, c.ExpectTimeout)
	fmt.Fprintf(w, "  Todo site:   %s\n", c.Sites.Todo)
	fmt.Fprintf(w, "  Shop site:   %s\n", c.Sites.Shop)
	fmt.Fprintf(w, "  Docs site:   %s\n", c.Sites.Docs)
	fmt.Fprintf(w, "  API sandbox: %s\n", c.Sites.API)
	fmt.Fprintf(w, "  Shop login:  %s / %s\n", c.ShopUser, MaskSecret(c.ShopPassword))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func MaskSecret(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
