package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/IliaW/page-watcher/config"
	"github.com/IliaW/page-watcher/internal/model"
	"github.com/gocolly/colly"
	"github.com/patrickmn/go-cache"
)

// Page is one fetched document. The body is raw text; parsing is the
// caller's concern.
type Page struct {
	Resource    string
	Body        string
	StatusCode  int
	Status      string
	TimeToFetch time.Duration
}

type PageFetcher interface {
	Fetch(context.Context, model.Resource) (*Page, error)
}

// DocumentFetcher fetches URL resources over HTTP (curl or headless browser,
// selected by config) and file resources from the local filesystem. A short
// TTL cache avoids re-fetching the same URL across overlapping jobs;
// cache_ttl 0 disables it.
type DocumentFetcher struct {
	cfg        *config.FetcherConfig
	log        *slog.Logger
	localCache *cache.Cache
	mechanism  model.FetchMechanism
}

func NewDocumentFetcher(cfg *config.FetcherConfig, log *slog.Logger) *DocumentFetcher {
	f := &DocumentFetcher{
		cfg:       cfg,
		log:       log,
		mechanism: model.FetchMechanism(cfg.FetchMechanism),
	}
	if cfg.CacheTtl > 0 {
		f.localCache = cache.New(cfg.CacheTtl, 2*cfg.CacheTtl)
	}
	return f
}

func (f *DocumentFetcher) Fetch(ctx context.Context, res model.Resource) (*Page, error) {
	switch res.Kind {
	case model.ResourceFile:
		return f.fetchFile(res.Path)
	case model.ResourceURL:
		return f.fetchURL(ctx, res.URL.String())
	default:
		return nil, fmt.Errorf("unsupported resource kind %d", res.Kind)
	}
}

func (f *DocumentFetcher) fetchFile(path string) (*Page, error) {
	startTime := time.Now()
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Page{
		Resource:    path,
		Body:        string(body),
		TimeToFetch: time.Since(startTime),
	}, nil
}

func (f *DocumentFetcher) fetchURL(ctx context.Context, url string) (*Page, error) {
	if f.localCache != nil {
		if cached, ok := f.localCache.Get(url); ok {
			f.log.Debug("cache hit.", slog.String("url", url))
			return cached.(*Page), nil
		}
	}

	page, err := f.fetchOnce(ctx, url)
	// Retries with exponential backoff for 429 status code
	for retry, delay := f.cfg.RetryAttempts, f.cfg.RetryDelay; page != nil && page.StatusCode ==
		http.StatusTooManyRequests && retry > 0; retry, delay = retry-1, delay*2 {
		f.log.Warn("too many requests status code. retrying...", slog.Int("attempts left", retry))
		time.Sleep(delay)
		page, err = f.fetchOnce(ctx, url)
	}
	if err != nil {
		return nil, err
	}
	if page.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("too many requests. fetch failed")
	}

	if f.localCache != nil {
		f.localCache.Set(url, page, cache.DefaultExpiration)
	}

	return page, nil
}

func (f *DocumentFetcher) fetchOnce(ctx context.Context, url string) (*Page, error) {
	switch f.mechanism {
	case model.Curl:
		return f.fetchWithCurl(url)
	case model.HeadlessBrowser:
		return f.fetchWithBrowser(ctx, url)
	default:
		return nil, errors.New("unsupported fetch mechanism")
	}
}

func (f *DocumentFetcher) fetchWithCurl(url string) (*Page, error) {
	page := &Page{Resource: url}

	c := colly.NewCollector()
	c.SetRequestTimeout(f.cfg.FetchTimeout)
	c.UserAgent = f.cfg.UserAgent

	var fetchErr error
	c.OnResponse(func(resp *colly.Response) {
		page.StatusCode = resp.StatusCode
		page.Status = http.StatusText(resp.StatusCode)
		page.Body = string(resp.Body)
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil {
			page.StatusCode = resp.StatusCode
			page.Status = http.StatusText(resp.StatusCode)
		}
		fetchErr = err
	})

	startTime := time.Now()
	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	page.TimeToFetch = time.Since(startTime)

	// 429 is kept for the caller's retry loop instead of failing outright.
	if fetchErr != nil && page.StatusCode != http.StatusTooManyRequests {
		return nil, fetchErr
	}

	return page, nil
}
