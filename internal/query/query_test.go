package query

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestCompile(t *testing.T) {
	h, err := Compile("//div[@class='row']")
	require.NoError(t, err)
	assert.Equal(t, "//div[@class='row']", h.String())
}

func TestCompileRejectsMalformedQuery(t *testing.T) {
	_, err := Compile("//a[")
	assert.Error(t, err)
}

func TestCompileRejectsEmptyQuery(t *testing.T) {
	_, err := Compile("")
	assert.Error(t, err)
}

func TestEvaluateElements(t *testing.T) {
	doc := parseDoc(t, "<ul><li>first</li><li>second</li></ul>")
	h, err := Compile("//li")
	require.NoError(t, err)

	items, err := h.Evaluate(doc)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, ItemElement, item.Kind)
		assert.NotNil(t, item.Node)
	}
	assert.Equal(t, "first", items[0].Value)
	assert.Equal(t, "second", items[1].Value)
}

func TestEvaluateAttributes(t *testing.T) {
	doc := parseDoc(t, `<a href="/next">more</a>`)
	h, err := Compile("//a/@href")
	require.NoError(t, err)

	items, err := h.Evaluate(doc)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ItemAttribute, items[0].Kind)
	assert.Equal(t, "href", items[0].Attr)
	assert.Equal(t, "/next", items[0].Value)
}

func TestEvaluateRelativeToNode(t *testing.T) {
	doc := parseDoc(t, "<div><p>inside</p></div><p>outside</p>")
	div := htmlquery.FindOne(doc, "//div")
	require.NotNil(t, div)

	h, err := Compile("p")
	require.NoError(t, err)
	items, err := h.Evaluate(div)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "inside", items[0].Value)
}

func TestEvaluateNonNodeSetIsError(t *testing.T) {
	doc := parseDoc(t, "<ul><li>one</li></ul>")
	h, err := Compile("count(//li)")
	require.NoError(t, err)

	_, err = h.Evaluate(doc)
	assert.Error(t, err)
}

func TestEvaluateNilContextIsError(t *testing.T) {
	h, err := Compile("//li")
	require.NoError(t, err)

	_, err = h.Evaluate(nil)
	assert.Error(t, err)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	doc := parseDoc(t, "<ul><li>a</li><li>b</li><li>c</li></ul>")
	h, err := Compile("//li")
	require.NoError(t, err)

	first, err := h.Evaluate(doc)
	require.NoError(t, err)
	second, err := h.Evaluate(doc)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Value, second[i].Value)
		assert.Same(t, first[i].Node, second[i].Node)
	}
}

func TestItemText(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		expected string
		ok       bool
	}{
		{"element", Item{Kind: ItemElement, Value: "text"}, "text", true},
		{"text", Item{Kind: ItemText, Value: "raw"}, "raw", true},
		{"attribute", Item{Kind: ItemAttribute, Value: "/next"}, "/next", true},
		{"other", Item{Kind: ItemOther, Value: "comment"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := tt.item.Text()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestFromNode(t *testing.T) {
	doc := parseDoc(t, "<h1>Hello</h1>")
	h1 := htmlquery.FindOne(doc, "//h1")
	require.NotNil(t, h1)

	item := FromNode(h1)
	assert.Equal(t, ItemElement, item.Kind)
	assert.Equal(t, "Hello", item.Value)

	docItem := FromNode(doc)
	assert.Equal(t, ItemOther, docItem.Kind)
	assert.Same(t, doc, docItem.Node)
}
