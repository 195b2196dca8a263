package locate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextMatch(t *testing.T) {
	tests := []struct {
		name string
		m    TextMatch
		in   string
		want bool
	}{
		{"substring ignores case", Contains("learn"), "  Learn   Playwright ", true},
		{"substring miss", Contains("golang"), "Learn Playwright", false},
		{"exact normalizes whitespace", Exact("Learn Playwright"), "Learn\n  Playwright", true},
		{"exact is case sensitive", Exact("learn playwright"), "Learn Playwright", false},
		{"exact rejects substring", Exact("Learn"), "Learn Playwright", false},
		{"regex", Pattern(`^Add`), "Add to cart", true},
		{"regex miss", Pattern(`^Add`), "Remove", false},
		{"invalid regex never matches", Pattern(`(`), "(", false},
		{"any", Any(), "whatever", true},
		{"exact empty matches only empty", Exact(""), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Matches(tt.in))
		})
	}
}

func TestChainString(t *testing.T) {
	c := Chain{}.TestID("todo-item").Nth(2).Role("checkbox", Any())
	assert.Equal(t, "testid=todo-item >> nth=2 >> role=checkbox", c.String())

	c = Chain{}.CSS("app-card").HasText(Contains("iphone X")).Role("button", Pattern("Add"))
	assert.Equal(t, `css=app-card >> has-text="iphone X"i >> role=button[name=/Add/]`, c.String())

	c = Chain{}.Placeholder(Exact("Search docs"))
	assert.Equal(t, `placeholder="Search docs"`, c.String())
}

func TestChainBuildersDoNotAlias(t *testing.T) {
	base := Chain{}.TestID("todo-item")
	a := base.Nth(0)
	b := base.Nth(1)

	require.Len(t, base, 1)
	assert.Equal(t, 0, a[1].Index)
	assert.Equal(t, 1, b[1].Index)
	assert.Equal(t, -1, base.Last()[1].Index)
}

func TestChainJSON(t *testing.T) {
	assert.Equal(t, "[]", Chain(nil).JSON())

	var steps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(Chain{}.Role("button", Exact("Sign In")).JSON()), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "query", steps[0]["op"])
	assert.Equal(t, "role", steps[0]["kind"])
	assert.Equal(t, "button", steps[0]["value"])
	match := steps[0]["match"].(map[string]any)
	assert.Equal(t, "Sign In", match["text"])
	assert.Equal(t, true, match["exact"])
}

func TestChainValidate(t *testing.T) {
	tests := []struct {
		name    string
		chain   Chain
		wantErr bool
	}{
		{"empty", Chain{}, true},
		{"testid", Chain{}.TestID("todo-item"), false},
		{"missing role", Chain{}.Role("", Any()), true},
		{"bad regex", Chain{}.Text(Pattern(`[`)), true},
		{"filter", Chain{}.CSS("li").HasText(Contains("x")).First(), false},
		{"unknown kind", Chain{{Op: OpQuery, Kind: "xpath", Value: "//a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chain.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
