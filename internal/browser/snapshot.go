package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// A11yNode is one line of an accessibility snapshot.
type A11yNode struct {
	Ref      string `json:"ref"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Value    string `json:"value,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Focused  bool   `json:"focused,omitempty"`
	Checked  string `json:"checked,omitempty"`
}

// RawAXNode is the Accessibility.getFullAXTree node shape, decoded loosely
// so protocol additions do not break parsing.
type RawAXNode struct {
	NodeID     string      `json:"nodeId"`
	Ignored    bool        `json:"ignored"`
	Role       *RawAXValue `json:"role"`
	Name       *RawAXValue `json:"name"`
	Value      *RawAXValue `json:"value"`
	Properties []RawAXProp `json:"properties"`
	ChildIDs   []string    `json:"childIds"`
}

type RawAXValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type RawAXProp struct {
	Name  string      `json:"name"`
	Value *RawAXValue `json:"value"`
}

func (v *RawAXValue) String() string {
	if v == nil || v.Value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(v.Value), `"`)
}

// InteractiveRoles are the roles kept by an interactive-only snapshot.
var InteractiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true,
	"combobox": true, "listbox": true, "option": true, "checkbox": true,
	"radio": true, "switch": true, "slider": true, "spinbutton": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true,
	"tab": true, "treeitem": true,
}

// BuildSnapshot flattens the raw tree in document order, dropping ignored
// and purely structural nodes. maxDepth < 0 means unlimited.
func BuildSnapshot(nodes []RawAXNode, interactiveOnly bool, maxDepth int) []A11yNode {
	parentMap := make(map[string]string)
	for _, n := range nodes {
		for _, childID := range n.ChildIDs {
			parentMap[childID] = n.NodeID
		}
	}
	depthOf := func(nodeID string) int {
		d := 0
		for cur := nodeID; ; d++ {
			p, ok := parentMap[cur]
			if !ok {
				return d
			}
			cur = p
		}
	}

	flat := make([]A11yNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Ignored {
			continue
		}
		role := n.Role.String()
		name := n.Name.String()
		if role == "none" || role == "generic" || role == "InlineTextBox" {
			continue
		}
		if name == "" && role == "StaticText" {
			continue
		}
		depth := depthOf(n.NodeID)
		if maxDepth >= 0 && depth > maxDepth {
			continue
		}
		if interactiveOnly && !InteractiveRoles[role] {
			continue
		}

		entry := A11yNode{
			Ref:   fmt.Sprintf("e%d", len(flat)),
			Role:  role,
			Name:  name,
			Depth: depth,
			Value: n.Value.String(),
		}
		for _, prop := range n.Properties {
			switch prop.Name {
			case "disabled":
				entry.Disabled = prop.Value.String() == "true"
			case "focused":
				entry.Focused = prop.Value.String() == "true"
			case "checked":
				if v := prop.Value.String(); v != "false" {
					entry.Checked = v
				}
			}
		}
		flat = append(flat, entry)
	}
	return flat
}

// FormatSnapshotText renders one indented line per node.
func FormatSnapshotText(nodes []A11yNode) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", n.Depth))
		b.WriteString(n.Ref)
		b.WriteByte(' ')
		b.WriteString(n.Role)
		if n.Name != "" {
			fmt.Fprintf(&b, " %q", n.Name)
		}
		if n.Value != "" {
			fmt.Fprintf(&b, " val=%q", n.Value)
		}
		if n.Checked != "" {
			b.WriteString(" [checked=" + n.Checked + "]")
		}
		if n.Focused {
			b.WriteString(" [focused]")
		}
		if n.Disabled {
			b.WriteString(" [disabled]")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// accessibilitySnapshot dumps the tab's accessibility tree as text.
func accessibilitySnapshot(ctx context.Context) (string, error) {
	var rawResult json.RawMessage
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.FromContext(ctx).Target.Execute(ctx,
				"Accessibility.getFullAXTree", nil, &rawResult)
		}),
	); err != nil {
		return "", fmt.Errorf("a11y tree: %w", err)
	}

	var treeResp struct {
		Nodes []RawAXNode `json:"nodes"`
	}
	if err := json.Unmarshal(rawResult, &treeResp); err != nil {
		return "", fmt.Errorf("parse a11y tree: %w", err)
	}
	return FormatSnapshotText(BuildSnapshot(treeResp.Nodes, false, -1)), nil
}
