package model

import (
	"fmt"
	"net/url"

	"github.com/IliaW/page-watcher/config"
	"github.com/IliaW/page-watcher/internal/query"
)

// BuildJobs validates the raw config entries and compiles every query.
// Any malformed entry or query is a configuration error: the caller is
// expected to treat it as fatal at startup, not as a runtime condition.
func BuildJobs(entries []*config.ResourceEntry) ([]*Job, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no resources configured")
	}

	jobs := make([]*Job, 0, len(entries))
	for i, entry := range entries {
		job, err := buildJob(entry)
		if err != nil {
			return nil, fmt.Errorf("resource #%d (%s): %w", i, entry.Name, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func buildJob(entry *config.ResourceEntry) (*Job, error) {
	resource, err := buildResource(entry)
	if err != nil {
		return nil, err
	}
	if entry.Period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %s", entry.Period)
	}
	targets, err := buildTargets(entry.Targets)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}

	continuation := Continuation{}
	if entry.Continuation != nil {
		ref, err := query.Compile(entry.Continuation.Ref)
		if err != nil {
			return nil, fmt.Errorf("continuation: %w", err)
		}
		continuation.Ref = ref
	}

	name := entry.Name
	if name == "" {
		name = resource.String()
	}

	return &Job{
		Name:         name,
		Resource:     resource,
		Period:       entry.Period,
		Targets:      targets,
		Continuation: continuation,
	}, nil
}

func buildResource(entry *config.ResourceEntry) (Resource, error) {
	switch {
	case entry.Url != "" && entry.Path != "":
		return Resource{}, fmt.Errorf("'url' and 'path' are mutually exclusive")
	case entry.Url != "":
		u, err := url.Parse(entry.Url)
		if err != nil {
			return Resource{}, fmt.Errorf("invalid url: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return Resource{}, fmt.Errorf("url must be absolute, got %q", entry.Url)
		}
		return NewURLResource(u), nil
	case entry.Path != "":
		return NewFileResource(entry.Path), nil
	default:
		return Resource{}, fmt.Errorf("either 'url' or 'path' is required")
	}
}

func buildTargets(entries []*config.TargetEntry) (Targets, error) {
	targets := make(Targets, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("target name is required")
		}
		if _, ok := seen[entry.Name]; ok {
			return nil, fmt.Errorf("duplicate target name %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}

		target, err := buildTarget(entry)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", entry.Name, err)
		}
		targets = append(targets, Field{Name: entry.Name, Target: target})
	}

	return targets, nil
}

func buildTarget(entry *config.TargetEntry) (Target, error) {
	switch {
	case entry.Query != "" && entry.Each != nil:
		return nil, fmt.Errorf("'query' and 'each' are mutually exclusive")
	case entry.Query != "":
		path, err := query.Compile(entry.Query)
		if err != nil {
			return nil, err
		}
		single := &SingleTarget{Path: path}
		if entry.Then != nil {
			then, err := buildTargets(entry.Then)
			if err != nil {
				return nil, err
			}
			single.Then = then
		}
		return single, nil
	case entry.Each != nil:
		if entry.Then != nil {
			return nil, fmt.Errorf("'then' is only valid together with 'query'")
		}
		sub, err := buildTargets(entry.Each)
		if err != nil {
			return nil, err
		}
		return &EachTarget{Sub: sub}, nil
	default:
		return nil, fmt.Errorf("either 'query' or 'each' is required")
	}
}
