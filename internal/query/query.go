package query

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Handle is a compiled XPath expression. Compilation happens once at
// configuration load; the handle is read-only afterwards and safe for
// concurrent use.
type Handle struct {
	raw  string
	expr *xpath.Expr
}

func Compile(raw string) (*Handle, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty query")
	}
	expr, err := xpath.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query %q: %w", raw, err)
	}
	return &Handle{raw: raw, expr: expr}, nil
}

func (h *Handle) String() string {
	return h.raw
}

type ItemKind int

const (
	ItemElement ItemKind = iota
	ItemText
	ItemAttribute
	ItemOther
)

// Item is one matched entry of a node-set. For attribute matches Node is the
// owning element and Attr holds the attribute name. Value is captured at
// match time: attribute value, text data, or the element's inner text.
type Item struct {
	Node  *html.Node
	Attr  string
	Value string
	Kind  ItemKind
}

// Text returns the extractable text of the item. The second return is false
// for items that do not dereference to a text-bearing node.
func (it Item) Text() (string, bool) {
	switch it.Kind {
	case ItemElement, ItemText, ItemAttribute:
		return it.Value, true
	default:
		return "", false
	}
}

// FromNode wraps an existing tree node as a matched item, the same way an
// identity query on that node would.
func FromNode(n *html.Node) Item {
	it := Item{Node: n}
	switch n.Type {
	case html.TextNode:
		it.Kind = ItemText
		it.Value = n.Data
	case html.ElementNode:
		it.Kind = ItemElement
		it.Value = htmlquery.InnerText(n)
	default:
		it.Kind = ItemOther
	}
	return it
}

// Evaluate applies the compiled expression with start as the context node and
// returns the matched node-set in document order. The tree is never mutated.
// Expressions yielding a non-node result (number, string, boolean) and any
// evaluation panic from the underlying engine are reported as errors.
func (h *Handle) Evaluate(start *html.Node) (items []Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("query %q paniced during evaluation: %v", h.raw, r)
		}
	}()
	if start == nil {
		return nil, fmt.Errorf("query %q: no context node", h.raw)
	}

	result := h.expr.Evaluate(htmlquery.CreateXPathNavigator(start))
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		return nil, fmt.Errorf("query %q did not yield a node-set (got %T)", h.raw, result)
	}
	for iter.MoveNext() {
		items = append(items, itemFrom(iter.Current()))
	}

	return items, nil
}

func itemFrom(nav xpath.NodeNavigator) Item {
	it := Item{Value: nav.Value()}
	switch nav.NodeType() {
	case xpath.AttributeNode:
		it.Kind = ItemAttribute
		it.Attr = nav.LocalName()
	case xpath.TextNode:
		it.Kind = ItemText
	case xpath.ElementNode:
		it.Kind = ItemElement
	default:
		it.Kind = ItemOther
	}
	// The iterator reuses its navigator; take the node out before MoveNext.
	if n, ok := nav.(*htmlquery.NodeNavigator); ok {
		it.Node = n.Current()
	}
	return it
}
