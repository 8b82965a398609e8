// Package evaluator walks a job's target tree over a parsed document and
// produces the result tree. It holds no state; a single evaluator run owns
// nothing but the cycle-local document it was handed.
package evaluator

import (
	"fmt"

	"github.com/IliaW/page-watcher/internal/model"
	"github.com/IliaW/page-watcher/internal/query"
	"golang.org/x/net/html"
)

// EvaluateDocument evaluates the target tree against a freshly parsed
// document. The document node is the single seeded entry of the root
// node-set, so a whole-page evaluation appears under the "[0]" key.
func EvaluateDocument(doc *html.Node, targets model.Targets) model.Result {
	return Evaluate([]query.Item{query.FromNode(doc)}, targets)
}

// Evaluate fans the item set out into a Group keyed "[0]".."[N-1]" in match
// order and evaluates the target tree independently against every item.
// A failing query never aborts sibling fields or other items; the failure
// becomes an EvalError node at that position.
func Evaluate(items []query.Item, targets model.Targets) model.Result {
	group := &model.Group{}
	for i, item := range items {
		group.Add(fmt.Sprintf("[%d]", i), evaluateItem(item, targets))
	}
	return group
}

func evaluateItem(item query.Item, targets model.Targets) model.Result {
	group := &model.Group{}
	for _, field := range targets {
		switch t := field.Target.(type) {
		case *model.SingleTarget:
			matched, err := t.Path.Evaluate(item.Node)
			if err != nil {
				group.Add(field.Name, &model.EvalError{Err: err})
				continue
			}
			if t.Then == nil {
				group.Add(field.Name, extractValues(matched))
			} else {
				// Zero matches descend into an empty Group. Only a query
				// that failed to apply is an EvalError.
				group.Add(field.Name, Evaluate(matched, t.Then))
			}
		case *model.EachTarget:
			group.Add(field.Name, evaluateChildren(item, t.Sub))
		}
	}
	return group
}

// evaluateChildren runs the sub-targets against every immediate element
// child of the item's node, keyed by child ordinal in document order.
func evaluateChildren(item query.Item, sub model.Targets) model.Result {
	group := &model.Group{}
	if item.Node == nil {
		return group
	}
	i := 0
	for child := item.Node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		group.Add(fmt.Sprintf("[%d]", i), evaluateItem(query.FromNode(child), sub))
		i++
	}
	return group
}

func extractValues(items []query.Item) *model.Values {
	values := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.Text(); ok {
			values = append(values, text)
		} else {
			values = append(values, model.NonTextValue)
		}
	}
	return &model.Values{Items: values}
}
