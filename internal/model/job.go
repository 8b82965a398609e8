package model

import (
	"net/url"
	"strings"
	"time"

	"github.com/IliaW/page-watcher/internal/query"
)

type FetchMechanism int

const (
	Curl FetchMechanism = iota
	HeadlessBrowser
)

func (fm FetchMechanism) String() string {
	return [...]string{"curl", "headless browser"}[fm]
}

type ResourceKind int

const (
	ResourceURL ResourceKind = iota
	ResourceFile
)

// Resource is a fetchable location: an absolute URL or a local file path.
// Values are immutable; continuation produces new Resource values via
// Continue, never mutates an existing one.
type Resource struct {
	Kind ResourceKind
	URL  *url.URL // set when Kind == ResourceURL
	Path string   // set when Kind == ResourceFile
}

func NewURLResource(u *url.URL) Resource {
	return Resource{Kind: ResourceURL, URL: u}
}

func NewFileResource(path string) Resource {
	return Resource{Kind: ResourceFile, Path: path}
}

func (r Resource) String() string {
	if r.Kind == ResourceURL {
		return r.URL.String()
	}
	return r.Path
}

func (r Resource) Clone() Resource {
	if r.URL != nil {
		u := *r.URL
		return Resource{Kind: r.Kind, URL: &u, Path: r.Path}
	}
	return r
}

// Continue derives the next resource from a continuation string found in the
// document. A leading slash replaces the URL path verbatim; anything else
// replaces only the final path segment. File resources do not support
// continuation and return false.
func (r Resource) Continue(continuation string) (Resource, bool) {
	if r.Kind != ResourceURL {
		return Resource{}, false
	}
	u := *r.URL
	u.RawPath = ""
	if strings.HasPrefix(continuation, "/") {
		u.Path = continuation
	} else if idx := strings.LastIndex(u.Path, "/"); idx >= 0 {
		u.Path = u.Path[:idx+1] + continuation
	} else {
		u.Path = "/" + continuation
	}
	return Resource{Kind: ResourceURL, URL: &u}, true
}

// Job is one top-level watch unit. Built once at startup from configuration
// and read-only for the process lifetime; every polling cycle starts from the
// job's original base resource.
type Job struct {
	Name         string
	Resource     Resource
	Period       time.Duration
	Targets      Targets
	Continuation Continuation
}

// Targets is an ordered set of named extractions. A slice (not a map) so the
// declared order survives into evaluation and output.
type Targets []Field

type Field struct {
	Name   string
	Target Target
}

// Target is a closed variant: SingleTarget or EachTarget.
type Target interface {
	isTarget()
}

// SingleTarget applies Path to the current node. A nil Then makes the matched
// node-set's text the leaf result; otherwise evaluation descends into Then
// with each matched node as the new current node.
type SingleTarget struct {
	Path *query.Handle
	Then Targets
}

// EachTarget evaluates Sub independently against every immediate element
// child of the current node, keyed by child ordinal.
type EachTarget struct {
	Sub Targets
}

func (*SingleTarget) isTarget() {}
func (*EachTarget) isTarget()   {}

// Continuation holds the compiled query whose attribute-valued matches become
// candidate next locations. A nil Ref means the job never expands its queue.
type Continuation struct {
	Ref *query.Handle
}

func (c Continuation) IsZero() bool {
	return c.Ref == nil
}
