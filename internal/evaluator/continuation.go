package evaluator

import (
	"github.com/IliaW/page-watcher/internal/model"
	"github.com/IliaW/page-watcher/internal/query"
	"golang.org/x/net/html"
)

// ResolveContinuation applies the continuation query against the whole
// document and returns the attribute-valued matches in match order.
// No match is the normal terminal condition, not an error. An evaluation
// failure yields an empty list and the error for the caller to log; it must
// not abort the crawl cycle.
func ResolveContinuation(doc *html.Node, c model.Continuation) ([]string, error) {
	if c.IsZero() {
		return nil, nil
	}
	items, err := c.Ref.Evaluate(doc)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, item := range items {
		if item.Kind == query.ItemAttribute {
			refs = append(refs, item.Value)
		}
	}
	return refs, nil
}
