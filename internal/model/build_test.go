package model

import (
	"testing"
	"time"

	"github.com/IliaW/page-watcher/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() *config.ResourceEntry {
	return &config.ResourceEntry{
		Name:   "example",
		Url:    "https://example.com/list/page1",
		Period: time.Minute,
		Targets: []*config.TargetEntry{
			{Name: "entries", Query: "//article", Then: []*config.TargetEntry{
				{Name: "title", Query: ".//h2"},
				{Name: "link", Query: ".//a/@href"},
			}},
			{Name: "rows", Each: []*config.TargetEntry{
				{Name: "cells", Query: "td"},
			}},
		},
		Continuation: &config.ContinuationEntry{Ref: "//a[@rel='next']/@href"},
	}
}

func TestBuildJobs(t *testing.T) {
	jobs, err := BuildJobs([]*config.ResourceEntry{validEntry()})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "example", job.Name)
	assert.Equal(t, ResourceURL, job.Resource.Kind)
	assert.Equal(t, time.Minute, job.Period)
	assert.False(t, job.Continuation.IsZero())

	require.Len(t, job.Targets, 2)
	assert.Equal(t, "entries", job.Targets[0].Name)
	single, ok := job.Targets[0].Target.(*SingleTarget)
	require.True(t, ok)
	require.Len(t, single.Then, 2)
	assert.Equal(t, "title", single.Then[0].Name)

	each, ok := job.Targets[1].Target.(*EachTarget)
	require.True(t, ok)
	require.Len(t, each.Sub, 1)
}

func TestBuildJobsFileResource(t *testing.T) {
	entry := validEntry()
	entry.Url = ""
	entry.Path = "./testdata/snapshot.html"
	entry.Continuation = nil

	jobs, err := BuildJobs([]*config.ResourceEntry{entry})
	require.NoError(t, err)
	assert.Equal(t, ResourceFile, jobs[0].Resource.Kind)
	assert.True(t, jobs[0].Continuation.IsZero())
}

func TestBuildJobsDefaultsNameToResource(t *testing.T) {
	entry := validEntry()
	entry.Name = ""

	jobs, err := BuildJobs([]*config.ResourceEntry{entry})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list/page1", jobs[0].Name)
}

func TestBuildJobsRejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ResourceEntry)
	}{
		{"no resources at all", func(e *config.ResourceEntry) {}},
		{"both url and path", func(e *config.ResourceEntry) { e.Path = "./x.html" }},
		{"neither url nor path", func(e *config.ResourceEntry) { e.Url = "" }},
		{"relative url", func(e *config.ResourceEntry) { e.Url = "/list/page1" }},
		{"zero period", func(e *config.ResourceEntry) { e.Period = 0 }},
		{"negative period", func(e *config.ResourceEntry) { e.Period = -time.Second }},
		{"no targets", func(e *config.ResourceEntry) { e.Targets = nil }},
		{"unnamed target", func(e *config.ResourceEntry) { e.Targets[0].Name = "" }},
		{"duplicate target names", func(e *config.ResourceEntry) { e.Targets[1].Name = e.Targets[0].Name }},
		{"malformed target query", func(e *config.ResourceEntry) { e.Targets[0].Query = "//a[" }},
		{"malformed nested query", func(e *config.ResourceEntry) { e.Targets[0].Then[0].Query = "//a[" }},
		{"query and each together", func(e *config.ResourceEntry) { e.Targets[0].Each = e.Targets[1].Each }},
		{"then without query", func(e *config.ResourceEntry) {
			e.Targets[1].Then = []*config.TargetEntry{{Name: "x", Query: "//x"}}
		}},
		{"target with no shape", func(e *config.ResourceEntry) {
			e.Targets[0].Query = ""
			e.Targets[0].Then = nil
		}},
		{"malformed continuation query", func(e *config.ResourceEntry) { e.Continuation.Ref = "//a[" }},
		{"empty continuation query", func(e *config.ResourceEntry) { e.Continuation.Ref = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(entry)
			entries := []*config.ResourceEntry{entry}
			if tt.name == "no resources at all" {
				entries = nil
			}
			_, err := BuildJobs(entries)
			assert.Error(t, err)
		})
	}
}
