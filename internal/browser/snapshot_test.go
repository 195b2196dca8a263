package browser

import (
	"encoding/json"
	"strings"
	"testing"
)

func axv(s string) *RawAXValue {
	b, _ := json.Marshal(s)
	return &RawAXValue{Type: "string", Value: b}
}

func TestRawAXValueString(t *testing.T) {
	tests := []struct {
		name string
		val  *RawAXValue
		want string
	}{
		{"nil", nil, ""},
		{"nil value", &RawAXValue{Type: "string"}, ""},
		{"string", &RawAXValue{Type: "string", Value: json.RawMessage(`"hello"`)}, "hello"},
		{"number", &RawAXValue{Type: "integer", Value: json.RawMessage(`42`)}, "42"},
		{"bool", &RawAXValue{Type: "boolean", Value: json.RawMessage(`true`)}, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func todoTree() []RawAXNode {
	return []RawAXNode{
		{NodeID: "root", Role: axv("RootWebArea"), Name: axv("React • TodoMVC"), ChildIDs: []string{"h", "in", "list"}},
		{NodeID: "h", Role: axv("heading"), Name: axv("todos")},
		{NodeID: "in", Role: axv("textbox"), Name: axv("What needs to be done?"),
			Properties: []RawAXProp{{Name: "focused", Value: &RawAXValue{Value: json.RawMessage(`true`)}}}},
		{NodeID: "list", Role: axv("list"), ChildIDs: []string{"item"}},
		{NodeID: "item", Role: axv("listitem"), ChildIDs: []string{"box", "g", "txt"}},
		{NodeID: "box", Role: axv("checkbox"), Name: axv("Toggle Todo"),
			Properties: []RawAXProp{{Name: "checked", Value: axv("true")}}},
		{NodeID: "g", Role: axv("generic")},
		{NodeID: "txt", Role: axv("StaticText")},
		{NodeID: "gone", Ignored: true, Role: axv("button"), Name: axv("Delete")},
	}
}

func TestBuildSnapshot(t *testing.T) {
	flat := BuildSnapshot(todoTree(), false, -1)
	if len(flat) != 6 {
		t.Fatalf("expected 6 nodes, got %d: %+v", len(flat), flat)
	}
	if flat[0].Ref != "e0" || flat[5].Ref != "e5" {
		t.Errorf("refs not sequential: %s..%s", flat[0].Ref, flat[5].Ref)
	}
	box := flat[5]
	if box.Role != "checkbox" || box.Depth != 3 || box.Checked != "true" {
		t.Errorf("unexpected checkbox entry %+v", box)
	}
	if !flat[2].Focused {
		t.Error("textbox should be focused")
	}
}

func TestBuildSnapshotInteractiveAndDepth(t *testing.T) {
	flat := BuildSnapshot(todoTree(), true, -1)
	if len(flat) != 2 {
		t.Fatalf("expected textbox and checkbox, got %+v", flat)
	}

	shallow := BuildSnapshot(todoTree(), false, 1)
	for _, n := range shallow {
		if n.Depth > 1 {
			t.Errorf("node %s deeper than 1", n.Ref)
		}
	}
}

func TestFormatSnapshotText(t *testing.T) {
	text := FormatSnapshotText([]A11yNode{
		{Ref: "e0", Role: "textbox", Name: "What needs to be done?", Value: "milk", Focused: true},
		{Ref: "e1", Role: "checkbox", Name: "Toggle Todo", Depth: 2, Checked: "true", Disabled: true},
	})
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", text)
	}
	if lines[0] != `e0 textbox "What needs to be done?" val="milk" [focused]` {
		t.Errorf("line 0: %q", lines[0])
	}
	if lines[1] != `    e1 checkbox "Toggle Todo" [checked=true] [disabled]` {
		t.Errorf("line 1: %q", lines[1])
	}
}
