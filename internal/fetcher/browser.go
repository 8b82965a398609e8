package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// fetchWithBrowser renders the page in a headless browser before handing the
// DOM back as HTML. Needed for resources that assemble their content with
// javascript; noticeably slower than the curl mechanism.
func (f *DocumentFetcher) fetchWithBrowser(ctx context.Context, url string) (*Page, error) {
	page := &Page{Resource: url}

	tCtx, cancelTCtx := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancelTCtx()
	cCtx, cancel := chromedp.NewContext(tCtx)
	defer cancel()

	chromedp.ListenTarget(cCtx, func(event interface{}) {
		if received, ok := event.(*network.EventResponseReceived); ok {
			response := received.Response
			if response.URL == url {
				page.StatusCode = int(response.Status)
				page.Status = response.StatusText
			}
		}
	})

	startTime := time.Now()
	err := chromedp.Run(cCtx,
		chromedp.Tasks{
			network.Enable(),
			network.SetExtraHTTPHeaders(map[string]interface{}{
				"User-Agent": f.cfg.UserAgent,
			}),
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		},
		chromedp.ActionFunc(func(ctx context.Context) error {
			rootNode, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			page.Body, err = dom.GetOuterHTML().WithNodeID(rootNode.NodeID).Do(ctx)
			return err
		}),
	)
	page.TimeToFetch = time.Since(startTime)
	if err != nil {
		return nil, err
	}

	return page, nil
}
