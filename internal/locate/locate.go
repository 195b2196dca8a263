// Package locate describes how to find elements on a page, independent of
// the engine that finally resolves them.
//
// A Chain is an ordered scoping path, in the spirit of Playwright's
// "a >> b >> nth=0" selectors: every query step searches the descendants of
// the elements matched so far, filter steps narrow the current set, and nth
// steps pick one element by position. Chains are plain data; they are
// resolved against the live document on every use and never cached.
package locate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindCSS         Kind = "css"
	KindRole        Kind = "role"
	KindText        Kind = "text"
	KindPlaceholder Kind = "placeholder"
	KindTestID      Kind = "testid"
	KindLabel       Kind = "label"
	KindTitle       Kind = "title"
	KindAlt         Kind = "alt"
)

type Op string

const (
	OpQuery  Op = "query"
	OpFilter Op = "filter"
	OpNth    Op = "nth"
)

// TestIDAttribute is the attribute GetByTestID matches.
const TestIDAttribute = "data-testid"

// TextMatch is how a string-valued property is compared. The zero value
// (empty, substring) matches anything.
type TextMatch struct {
	Text  string `json:"text"`
	Regex bool   `json:"regex,omitempty"`
	Exact bool   `json:"exact,omitempty"`
}

// Contains matches case-insensitively on a whitespace-normalized substring.
func Contains(s string) TextMatch { return TextMatch{Text: s} }

// Exact matches the whole whitespace-normalized string, case-sensitively.
func Exact(s string) TextMatch { return TextMatch{Text: s, Exact: true} }

// Pattern matches with a regular expression. The expression must be valid
// both as Go RE2 and as a JavaScript RegExp; Chain.Validate checks the former.
func Pattern(expr string) TextMatch { return TextMatch{Text: expr, Regex: true} }

// Any matches every value.
func Any() TextMatch { return TextMatch{} }

// IsAny reports whether m places no constraint.
func (m TextMatch) IsAny() bool { return m.Text == "" && !m.Exact }

// Normalize collapses whitespace runs and trims, the way both resolvers read
// text before comparing it.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Matches compares s (normalized first) against m.
func (m TextMatch) Matches(s string) bool {
	s = Normalize(s)
	switch {
	case m.Regex:
		re, err := regexp.Compile(m.Text)
		if err != nil {
			return false
		}
		return re.MatchString(s)
	case m.Exact:
		return s == Normalize(m.Text)
	default:
		return strings.Contains(strings.ToLower(s), strings.ToLower(Normalize(m.Text)))
	}
}

func (m TextMatch) String() string {
	switch {
	case m.Regex:
		return "/" + m.Text + "/"
	case m.Exact:
		return strconv.Quote(m.Text)
	default:
		return strconv.Quote(m.Text) + "i"
	}
}

// Step is one element of a Chain.
type Step struct {
	Op    Op         `json:"op"`
	Kind  Kind       `json:"kind,omitempty"`
	Value string     `json:"value,omitempty"`
	Match *TextMatch `json:"match,omitempty"`
	Not   bool       `json:"not,omitempty"`
	Index int        `json:"index,omitempty"`
}

func (s Step) String() string {
	switch s.Op {
	case OpNth:
		return "nth=" + strconv.Itoa(s.Index)
	case OpFilter:
		name := "has-text"
		if s.Not {
			name = "has-not-text"
		}
		return name + "=" + s.Match.String()
	}
	switch s.Kind {
	case KindCSS, KindTestID:
		return string(s.Kind) + "=" + s.Value
	case KindRole:
		if s.Match == nil || s.Match.IsAny() {
			return "role=" + s.Value
		}
		return "role=" + s.Value + "[name=" + s.Match.String() + "]"
	default:
		m := Any()
		if s.Match != nil {
			m = *s.Match
		}
		return string(s.Kind) + "=" + m.String()
	}
}

// Chain is an immutable scoping path; every builder returns a copy.
type Chain []Step

func (c Chain) then(s Step) Chain {
	out := make(Chain, len(c)+1)
	copy(out, c)
	out[len(c)] = s
	return out
}

func query(kind Kind, value string, m *TextMatch) Step {
	return Step{Op: OpQuery, Kind: kind, Value: value, Match: m}
}

func (c Chain) CSS(selector string) Chain { return c.then(query(KindCSS, selector, nil)) }

// Role selects by ARIA role (explicit or implicit) and optionally by
// accessible name.
func (c Chain) Role(role string, name TextMatch) Chain {
	return c.then(query(KindRole, role, &name))
}

func (c Chain) Text(m TextMatch) Chain        { return c.then(query(KindText, "", &m)) }
func (c Chain) Placeholder(m TextMatch) Chain { return c.then(query(KindPlaceholder, "", &m)) }
func (c Chain) Label(m TextMatch) Chain       { return c.then(query(KindLabel, "", &m)) }
func (c Chain) Title(m TextMatch) Chain       { return c.then(query(KindTitle, "", &m)) }
func (c Chain) Alt(m TextMatch) Chain         { return c.then(query(KindAlt, "", &m)) }
func (c Chain) TestID(id string) Chain        { return c.then(query(KindTestID, id, nil)) }

// HasText keeps elements whose text content matches m.
func (c Chain) HasText(m TextMatch) Chain {
	return c.then(Step{Op: OpFilter, Match: &m})
}

// HasNotText drops elements whose text content matches m.
func (c Chain) HasNotText(m TextMatch) Chain {
	return c.then(Step{Op: OpFilter, Match: &m, Not: true})
}

// Nth picks the element at index; negative indexes count from the end.
func (c Chain) Nth(index int) Chain {
	return c.then(Step{Op: OpNth, Index: index})
}

func (c Chain) First() Chain { return c.Nth(0) }
func (c Chain) Last() Chain  { return c.Nth(-1) }

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, " >> ")
}

// JSON encodes the chain for the in-page resolver.
func (c Chain) JSON() string {
	if c == nil {
		return "[]"
	}
	b, err := json.Marshal(c)
	if err != nil {
		// Chain holds only strings, bools and ints.
		panic(err)
	}
	return string(b)
}

// Validate rejects chains no resolver could evaluate.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("empty locator")
	}
	for i, s := range c {
		switch s.Op {
		case OpNth:
		case OpFilter:
			if s.Match == nil {
				return fmt.Errorf("step %d (%s): filter without text", i, s.Op)
			}
		case OpQuery:
			switch s.Kind {
			case KindCSS, KindTestID, KindRole:
				if s.Value == "" {
					return fmt.Errorf("step %d: %s needs a value", i, s.Kind)
				}
			case KindText, KindPlaceholder, KindLabel, KindTitle, KindAlt:
				if s.Match == nil {
					return fmt.Errorf("step %d: %s needs a text match", i, s.Kind)
				}
			default:
				return fmt.Errorf("step %d: unknown kind %q", i, s.Kind)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, s.Op)
		}
		if s.Match != nil && s.Match.Regex {
			if _, err := regexp.Compile(s.Match.Text); err != nil {
				return fmt.Errorf("step %d: bad pattern: %w", i, err)
			}
		}
	}
	return nil
}
