package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/pinchtab/pagewright/internal/browser"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/human"
	"github.com/pinchtab/pagewright/internal/pwdriver"
	"github.com/pinchtab/pagewright/internal/scenario"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/spf13/cobra"
)

// openDriver is swapped in tests.
var openDriver = func(cfg *config.RuntimeConfig) (session.Driver, error) {
	switch cfg.Driver {
	case config.DriverPlaywright:
		d, err := pwdriver.Launch(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		b, err := browser.Launch(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func newRunCmd(cfg *config.RuntimeConfig) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run [pattern...]",
		Short: "Run scenarios matching the glob patterns (all when none given)",
		Example: `  pagewright run
  pagewright run 'todo/*' shop/checkout-iphone
  pagewright run --driver playwright --headless=false 'docs/*'
  pagewright run --driver playwright --browser firefox --trace 'shop/*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			cases, err := scenario.Builtin().Match(args...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var drv session.Driver
			if slices.ContainsFunc(cases, func(c scenario.Case) bool { return c.Browser }) {
				if cfg.Humanize {
					human.SetHumanRandSeed(time.Now().UnixNano())
				}
				drv, err = openDriver(cfg)
				if err != nil {
					return fmt.Errorf("start %s driver: %w", cfg.Driver, err)
				}
				defer func() {
					if err := drv.Close(); err != nil {
						slog.Warn("driver close", "err", err)
					}
				}()
			}

			rep := scenario.NewRunner(drv, cfg).Run(ctx, cases)
			out := cmd.OutOrStdout()
			if asJSON {
				if err := rep.WriteJSON(out); err != nil {
					return err
				}
			} else {
				rep.WriteText(out)
			}
			if !rep.OK() {
				return fmt.Errorf("%d of %d cases did not pass", len(rep.Results)-rep.Count(scenario.StatusPassed), len(rep.Results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Driver, "driver", cfg.Driver, "browser engine: chromedp or playwright")
	f.StringVar(&cfg.Browser, "browser", cfg.Browser, "browser for --driver playwright: chromium, firefox or webkit")
	f.BoolVar(&cfg.Trace, "trace", cfg.Trace, "record a playwright trace per case, saved as trace.zip on failure")
	f.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run the browser headless")
	f.StringVar(&cfg.CdpURL, "cdp-url", cfg.CdpURL, "attach to a running Chrome instead of launching one")
	f.IntVarP(&cfg.Parallel, "parallel", "p", cfg.Parallel, "cases run at once")
	f.StringVar(&cfg.ArtifactDir, "artifacts", cfg.ArtifactDir, "directory for failure screenshots and snapshots")
	f.DurationVar(&cfg.ActionTimeout, "timeout", cfg.ActionTimeout, "action timeout")
	f.DurationVar(&cfg.ExpectTimeout, "expect-timeout", cfg.ExpectTimeout, "assertion timeout")
	f.BoolVar(&cfg.Humanize, "humanize", cfg.Humanize, "move the mouse and type like a person")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern...]",
		Short: "List registered scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := scenario.Builtin().Match(args...)
			if err != nil {
				return err
			}
			width := 0
			for _, c := range cases {
				width = max(width, len(c.Name))
			}
			out := cmd.OutOrStdout()
			for _, c := range cases {
				kind := "api"
				if c.Browser {
					kind = "browser"
				}
				fmt.Fprintf(out, "%-*s  %-7s  %s\n", width, c.Name, kind, c.Description)
			}
			return nil
		},
	}
}

func newInstallCmd(cfg *config.RuntimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:       "install [browser...]",
		Short:     "Download the Playwright driver and browsers for --driver playwright",
		Long:      "Downloads the named browsers, or the configured one when none are given.",
		ValidArgs: []string{config.BrowserChromium, config.BrowserFirefox, config.BrowserWebKit},
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{cfg.BrowserName()}
			}
			return pwdriver.InstallBrowsers(args...)
		},
	}
}
