package locate

import (
	"strings"
)

// Element is the read-only view of a DOM node the Go resolver needs. The
// in-page resolver (assets/resolver.js) implements the same rules against the
// real DOM.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	// Text is the element's full text content.
	Text() string
	Children() []Element
	Parent() Element
	// Rendered is false for display:none and similar.
	Rendered() bool
}

// Resolve evaluates chain against the tree under root and returns matches in
// document order. A nil result means nothing matched. CSS steps support
// comma-separated compound selectors only (tag, .class, #id, [attr],
// [attr=value]); combinators match nothing.
func Resolve(root Element, chain Chain) []Element {
	doc := descendants(root)
	current := []Element{root}
	for _, step := range chain {
		switch step.Op {
		case OpQuery:
			current = queryStep(root, doc, current, step)
		case OpFilter:
			kept := current[:0:0]
			for _, el := range current {
				if step.Match.Matches(el.Text()) != step.Not {
					kept = append(kept, el)
				}
			}
			current = kept
		case OpNth:
			i := step.Index
			if i < 0 {
				i += len(current)
			}
			if i < 0 || i >= len(current) {
				return nil
			}
			current = []Element{current[i]}
		}
		if len(current) == 0 {
			return nil
		}
	}
	if len(chain) == 0 {
		return nil
	}
	return current
}

func queryStep(root Element, doc, scopes []Element, step Step) []Element {
	var out []Element
	for _, el := range doc {
		if !insideAny(el, scopes) {
			continue
		}
		if matchStep(root, el, step) {
			out = append(out, el)
		}
	}
	return out
}

func insideAny(el Element, scopes []Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, s := range scopes {
			if p == s {
				return true
			}
		}
	}
	return false
}

func matchStep(root, el Element, step Step) bool {
	m := Any()
	if step.Match != nil {
		m = *step.Match
	}
	switch step.Kind {
	case KindCSS:
		return MatchCSS(el, step.Value)
	case KindTestID:
		v, ok := el.Attr(TestIDAttribute)
		return ok && v == step.Value
	case KindPlaceholder:
		v, ok := el.Attr("placeholder")
		return ok && m.Matches(v)
	case KindTitle:
		v, ok := el.Attr("title")
		return ok && m.Matches(v)
	case KindAlt:
		v, ok := el.Attr("alt")
		return ok && m.Matches(v)
	case KindLabel:
		return labelMatches(root, el, m)
	case KindText:
		return textMatches(el, m)
	case KindRole:
		if !accessible(el) || ImplicitRole(el) != step.Value {
			return false
		}
		return m.IsAny() || m.Matches(AccessibleName(root, el))
	}
	return false
}

// textMatches selects the innermost element whose text matches: a parent
// whose child already carries the whole match is skipped.
func textMatches(el Element, m TextMatch) bool {
	switch el.Tag() {
	case "script", "style", "head", "html", "template":
		return false
	}
	if !m.Matches(el.Text()) {
		return false
	}
	for _, c := range el.Children() {
		if m.Matches(c.Text()) {
			return false
		}
	}
	return true
}

func accessible(el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if !cur.Rendered() {
			return false
		}
		if v, _ := cur.Attr("aria-hidden"); v == "true" {
			return false
		}
	}
	return true
}

// ImplicitRole returns the explicit role attribute's first token or the
// role the element's tag implies. Empty means no role.
func ImplicitRole(el Element) string {
	if r, ok := el.Attr("role"); ok {
		if f := strings.Fields(r); len(f) > 0 {
			return f[0]
		}
	}
	_, hasHref := el.Attr("href")
	switch tag := el.Tag(); tag {
	case "a", "area":
		if hasHref {
			return "link"
		}
	case "button":
		return "button"
	case "input":
		t, _ := el.Attr("type")
		_, hasList := el.Attr("list")
		switch strings.ToLower(t) {
		case "button", "submit", "reset", "image":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "number":
			return "spinbutton"
		case "range":
			return "slider"
		case "hidden", "file", "color", "date", "datetime-local", "month", "time", "week":
			return ""
		case "search":
			if hasList {
				return "combobox"
			}
			return "searchbox"
		default:
			if hasList {
				return "combobox"
			}
			return "textbox"
		}
	case "textarea":
		return "textbox"
	case "select":
		_, multi := el.Attr("multiple")
		size, _ := el.Attr("size")
		if multi || (size != "" && size != "0" && size != "1") {
			return "listbox"
		}
		return "combobox"
	case "option":
		return "option"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "table":
		return "table"
	case "tr":
		return "row"
	case "td":
		return "cell"
	case "th":
		return "columnheader"
	case "thead", "tbody", "tfoot":
		return "rowgroup"
	case "ul", "ol", "menu":
		return "list"
	case "li":
		return "listitem"
	case "img":
		if alt, ok := el.Attr("alt"); ok && alt == "" {
			return "presentation"
		}
		return "img"
	case "nav":
		return "navigation"
	case "main":
		return "main"
	case "header":
		return "banner"
	case "footer":
		return "contentinfo"
	case "article":
		return "article"
	case "aside":
		return "complementary"
	case "dialog":
		return "dialog"
	case "form":
		return "form"
	case "p":
		return "paragraph"
	case "hr":
		return "separator"
	case "section":
		_, l := el.Attr("aria-label")
		_, lb := el.Attr("aria-labelledby")
		if l || lb {
			return "region"
		}
	}
	return ""
}

var nameFromContent = map[string]bool{
	"button": true, "link": true, "heading": true, "cell": true, "columnheader": true,
	"row": true, "option": true, "listitem": true, "tab": true, "menuitem": true,
	"treeitem": true, "checkbox": true, "radio": true, "switch": true,
}

// AccessibleName is a practical subset of the accname algorithm:
// aria-labelledby, aria-label, associated <label>s, input values and alt
// text, content for roles that take their name from content, then title and
// placeholder.
func AccessibleName(root, el Element) string {
	if ids, ok := el.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := byID(root, id); ref != nil {
				parts = append(parts, ref.Text())
			}
		}
		if n := Normalize(strings.Join(parts, " ")); n != "" {
			return n
		}
	}
	if v, ok := el.Attr("aria-label"); ok && Normalize(v) != "" {
		return Normalize(v)
	}
	if n := labelText(root, el); n != "" {
		return n
	}
	if el.Tag() == "input" {
		t, _ := el.Attr("type")
		switch strings.ToLower(t) {
		case "button", "submit", "reset":
			if v, ok := el.Attr("value"); ok {
				return Normalize(v)
			}
			if strings.ToLower(t) == "reset" {
				return "Reset"
			}
			if strings.ToLower(t) == "submit" {
				return "Submit"
			}
		case "image":
			if v, ok := el.Attr("alt"); ok {
				return Normalize(v)
			}
		}
	}
	if el.Tag() == "img" {
		if v, ok := el.Attr("alt"); ok {
			return Normalize(v)
		}
	}
	if nameFromContent[ImplicitRole(el)] {
		if n := Normalize(el.Text()); n != "" {
			return n
		}
	}
	if v, ok := el.Attr("title"); ok && Normalize(v) != "" {
		return Normalize(v)
	}
	if v, ok := el.Attr("placeholder"); ok {
		return Normalize(v)
	}
	return ""
}

var labelable = map[string]bool{
	"input": true, "select": true, "textarea": true, "button": true,
	"meter": true, "output": true, "progress": true,
}

// labelText joins the text of <label for=id> elements and of a wrapping
// <label>.
func labelText(root, el Element) string {
	if !labelable[el.Tag()] {
		return ""
	}
	var parts []string
	if id, ok := el.Attr("id"); ok && id != "" {
		for _, l := range descendants(root) {
			if l.Tag() != "label" {
				continue
			}
			if f, _ := l.Attr("for"); f == id {
				parts = append(parts, l.Text())
			}
		}
	}
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.Tag() == "label" {
			parts = append(parts, p.Text())
			break
		}
	}
	return Normalize(strings.Join(parts, " "))
}

func labelMatches(root, el Element, m TextMatch) bool {
	if v, ok := el.Attr("aria-label"); ok && m.Matches(v) {
		return true
	}
	if ids, ok := el.Attr("aria-labelledby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := byID(root, id); ref != nil {
				parts = append(parts, ref.Text())
			}
		}
		if len(parts) > 0 && m.Matches(strings.Join(parts, " ")) {
			return true
		}
	}
	if t := labelText(root, el); t != "" && m.Matches(t) {
		return true
	}
	return false
}

func byID(root Element, id string) Element {
	for _, el := range descendants(root) {
		if v, ok := el.Attr("id"); ok && v == id {
			return el
		}
	}
	return nil
}

// descendants lists every element under root in document order, root
// excluded.
func descendants(root Element) []Element {
	var out []Element
	var walk func(Element)
	walk = func(e Element) {
		for _, c := range e.Children() {
			out = append(out, c)
			walk(c)
		}
	}
	walk(root)
	return out
}

// MatchCSS reports whether el matches a selector list made of compound
// selectors.
func MatchCSS(el Element, selector string) bool {
	for _, group := range strings.Split(selector, ",") {
		if matchCompound(el, strings.TrimSpace(group)) {
			return true
		}
	}
	return false
}

func matchCompound(el Element, sel string) bool {
	if sel == "" || strings.ContainsAny(sel, " >+~") {
		return false
	}
	i := 0
	for i < len(sel) && sel[i] != '.' && sel[i] != '#' && sel[i] != '[' {
		i++
	}
	if tag := sel[:i]; tag != "" && tag != "*" && !strings.EqualFold(tag, el.Tag()) {
		return false
	}
	rest := sel[i:]
	for rest != "" {
		switch rest[0] {
		case '.', '#':
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '#' && rest[j] != '[' {
				j++
			}
			name := rest[1:j]
			if rest[0] == '#' {
				if id, _ := el.Attr("id"); id != name {
					return false
				}
			} else {
				cls, _ := el.Attr("class")
				found := false
				for _, c := range strings.Fields(cls) {
					if c == name {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			rest = rest[j:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return false
			}
			name, want, hasValue := strings.Cut(rest[1:end], "=")
			v, ok := el.Attr(strings.TrimSpace(name))
			if !ok {
				return false
			}
			if hasValue && v != strings.Trim(strings.TrimSpace(want), `"'`) {
				return false
			}
			rest = rest[end+1:]
		default:
			return false
		}
	}
	return true
}
