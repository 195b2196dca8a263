package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	passColor   = color.New(color.FgGreen)
	failColor   = color.New(color.FgRed)
	brokenColor = color.New(color.FgYellow)
	grayColor   = color.New(color.Faint)
)

type Report struct {
	RunID    string        `json:"runId"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"durationNs"`
	Results  []Result      `json:"results"`
}

func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Count(StatusPassed) == len(r.Results)
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText prints one line per case and a summary. Colors follow
// color.NoColor, which fatih/color sets for non-terminals.
func (r *Report) WriteText(w io.Writer) {
	width := 0
	for _, res := range r.Results {
		width = max(width, len(res.Name))
	}
	for _, res := range r.Results {
		mark, c := statusMark(res.Status)
		_, _ = c.Fprintf(w, "%s ", mark)
		fmt.Fprintf(w, "%-*s ", width, res.Name)
		_, _ = grayColor.Fprintf(w, "%s\n", res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			for _, line := range strings.Split(res.Error, "\n") {
				_, _ = c.Fprintf(w, "    %s\n", line)
			}
			for _, a := range res.Artifacts {
				_, _ = grayColor.Fprintf(w, "    artifact: %s\n", a)
			}
		}
	}
	fmt.Fprintln(w)
	_, _ = passColor.Fprintf(w, "%d passed", r.Count(StatusPassed))
	if n := r.Count(StatusFailed); n > 0 {
		fmt.Fprint(w, ", ")
		_, _ = failColor.Fprintf(w, "%d failed", n)
	}
	if n := r.Count(StatusBroken); n > 0 {
		fmt.Fprint(w, ", ")
		_, _ = brokenColor.Fprintf(w, "%d broken", n)
	}
	_, _ = grayColor.Fprintf(w, " (%s, run %s)\n", r.Duration.Round(time.Millisecond), r.RunID)
}

func statusMark(s Status) (string, *color.Color) {
	switch s {
	case StatusPassed:
		return "✓", passColor
	case StatusFailed:
		return "✗", failColor
	default:
		return "!", brokenColor
	}
}
