package worker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IliaW/page-watcher/internal/evaluator"
	"github.com/IliaW/page-watcher/internal/fetcher"
	"github.com/IliaW/page-watcher/internal/model"
	"github.com/antchfx/htmlquery"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WatchWorker runs one job's polling loop: a fixed-period ticker where every
// tick drives one full crawl cycle. Workers share nothing but the shutdown
// context; a slow cycle delays this job's next tick and nothing else.
type WatchWorker struct {
	Job        *model.Job
	Fetcher    fetcher.PageFetcher
	ResultChan chan<- *model.CycleResult // nil when the kafka producer is disabled
	PanicChan  chan *WatchWorker
	Version    string
	Log        *slog.Logger
	Wg         *sync.WaitGroup
}

// Run blocks until the context is cancelled. The first cycle fires only
// after one full period; an in-flight cycle is never overlapped by the next
// tick and is not cancelled on shutdown.
func (w *WatchWorker) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.Log.Error("PANIC!", slog.String("job", w.Job.Name), slog.Any("err", r))
			w.PanicChan <- w
		}
	}()
	defer w.Wg.Done()
	log := w.Log.With(slog.String("job", w.Job.Name))
	log.Debug("starting watch worker.", slog.Duration("period", w.Job.Period))

	ticker := time.NewTicker(w.Job.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping watch worker.")
			return
		case <-ticker.C:
			w.runCycle(ctx, log)
			log.Debug("cycle finished. awaiting next tick.")
		}
	}
}

// runCycle drains a FIFO queue seeded with the job's base resource. Every
// failure is scoped to the resource it happened on: the queue keeps draining
// and the next tick starts over from the base resource.
func (w *WatchWorker) runCycle(ctx context.Context, log *slog.Logger) {
	queue := []model.Resource{w.Job.Resource.Clone()}
	for len(queue) > 0 {
		resource := queue[0]
		queue = queue[1:]

		continuations := w.handleResource(ctx, log, resource)
		if len(continuations) == 0 {
			continue
		}
		if resource.Kind != model.ResourceURL {
			log.Warn("file resource does not support continuation. discarding.",
				slog.String("resource", resource.String()),
				slog.Int("count", len(continuations)))
			continue
		}
		for _, continuation := range continuations {
			next, ok := resource.Continue(continuation)
			if ok {
				queue = append(queue, next)
			}
		}
	}
}

// handleResource fetches, parses and evaluates one resource, emits the
// result, and returns the resolved continuation strings.
func (w *WatchWorker) handleResource(ctx context.Context, log *slog.Logger, resource model.Resource) []string {
	log.Info("fetching resource.", slog.String("resource", resource.String()))
	page, err := w.Fetcher.Fetch(ctx, resource)
	if err != nil {
		log.Error("fetch failed.", slog.String("resource", resource.String()),
			slog.String("err", err.Error()))
		return nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(page.Body))
	if err != nil {
		log.Error("parse failed.", slog.String("resource", resource.String()),
			slog.String("err", err.Error()))
		return nil
	}

	result := evaluator.EvaluateDocument(doc, w.Job.Targets)
	w.emit(log, resource, page, result)

	continuations, err := evaluator.ResolveContinuation(doc, w.Job.Continuation)
	if err != nil {
		log.Error("continuation query failed.", slog.String("resource", resource.String()),
			slog.String("err", err.Error()))
		return nil
	}
	if len(continuations) > 0 {
		log.Info("found continuations.", slog.Any("refs", continuations))
	}

	return continuations
}

func (w *WatchWorker) emit(log *slog.Logger, resource model.Resource, page *fetcher.Page, result model.Result) {
	body, err := json.Marshal(result)
	if err != nil {
		log.Error("failed to marshal result.", slog.String("err", err.Error()))
		body = []byte("{}")
	}
	log.Info("extraction result.", slog.String("resource", resource.String()),
		slog.String("result", string(body)))

	if w.ResultChan != nil {
		w.ResultChan <- &model.CycleResult{
			Job:            w.Job.Name,
			Resource:       resource.String(),
			Result:         result,
			FetchedAt:      time.Now().UTC(),
			TimeToFetch:    page.TimeToFetch.Milliseconds(),
			WatcherVersion: w.Version,
		}
	}
}
