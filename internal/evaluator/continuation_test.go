package evaluator

import (
	"testing"

	"github.com/IliaW/page-watcher/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContinuation(t *testing.T) {
	doc := parseDoc(t, `
		<a rel="next" href="/list/page2">next</a>
		<a rel="next" href="/list/page3">later</a>`)
	c := model.Continuation{Ref: mustCompile(t, "//a[@rel='next']/@href")}

	refs, err := ResolveContinuation(doc, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"/list/page2", "/list/page3"}, refs)
}

func TestResolveContinuationIsIdempotent(t *testing.T) {
	doc := parseDoc(t, `<a rel="next" href="page2">next</a>`)
	c := model.Continuation{Ref: mustCompile(t, "//a[@rel='next']/@href")}

	first, err := ResolveContinuation(doc, c)
	require.NoError(t, err)
	second, err := ResolveContinuation(doc, c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveContinuationNoMatchIsNotAnError(t *testing.T) {
	doc := parseDoc(t, "<p>last page</p>")
	c := model.Continuation{Ref: mustCompile(t, "//a[@rel='next']/@href")}

	refs, err := ResolveContinuation(doc, c)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestResolveContinuationSkipsNonAttributeMatches(t *testing.T) {
	doc := parseDoc(t, `<a rel="next" href="/p2">next</a>`)
	c := model.Continuation{Ref: mustCompile(t, "//a[@rel='next']")}

	refs, err := ResolveContinuation(doc, c)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestResolveContinuationEvaluationFailure(t *testing.T) {
	doc := parseDoc(t, `<a href="/p2">next</a>`)
	c := model.Continuation{Ref: mustCompile(t, "count(//a)")}

	refs, err := ResolveContinuation(doc, c)
	assert.Error(t, err)
	assert.Empty(t, refs)
}

func TestResolveContinuationWithoutRule(t *testing.T) {
	doc := parseDoc(t, `<a href="/p2">next</a>`)

	refs, err := ResolveContinuation(doc, model.Continuation{})
	require.NoError(t, err)
	assert.Empty(t, refs)
}
