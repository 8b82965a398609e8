package model

import (
	"bytes"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NonTextValue marks a matched item which does not dereference to a
// text-bearing node. Such items are reported, never silently dropped.
const NonTextValue = "<non-text>"

// Result is the evaluator's output tree, a closed variant mirroring the
// target tree's shape: Group for non-leaf positions, Values for leaves,
// EvalError where a query failed to apply.
type Result interface {
	isResult()
}

type GroupEntry struct {
	Key   string
	Value Result
}

// Group is an ordered name->Result mapping. Entry order is insertion order:
// declared field order for target fields, document order for the "[i]" keys
// produced by node-set fan-out.
type Group struct {
	Entries []GroupEntry
}

type Values struct {
	Items []string
}

type EvalError struct {
	Err error
}

func (*Group) isResult()     {}
func (*Values) isResult()    {}
func (*EvalError) isResult() {}

func (g *Group) Add(key string, r Result) {
	g.Entries = append(g.Entries, GroupEntry{Key: key, Value: r})
}

func (g *Group) Get(key string) (Result, bool) {
	for _, e := range g.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (g *Group) Len() int {
	return len(g.Entries)
}

// MarshalJSON writes the group as an object with keys in insertion order.
// The stdlib map marshalling would sort them.
func (g *Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v *Values) MarshalJSON() ([]byte, error) {
	if v.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Items)
}

func (e *EvalError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"error": e.Err.Error()})
}

// CycleResult is one resource's extraction outcome, handed to the output
// sinks (log and, when enabled, the kafka producer) and then discarded.
type CycleResult struct {
	Job            string    `json:"job"`
	Resource       string    `json:"resource"`
	Result         Result    `json:"result"`
	FetchedAt      time.Time `json:"fetched_at"`
	TimeToFetch    int64     `json:"time_to_fetch"` // in milliseconds
	WatcherVersion string    `json:"watcher_version,omitempty"`
}
