// internal/adapters/places/scraper.go
package places

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"placepulse/internal/domain"
)

// Scraper is the browser-automation fallback. It drives a headless browser
// to the place page, opens the reviews panel and scrolls until no new review
// elements render. Per-review extraction is best-effort: a broken field
// degrades to a zero value instead of aborting the batch.
type Scraper struct {
	baseURL string
	timeout time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{
		baseURL: "https://www.google.com/maps/place/",
		timeout: timeout,
	}
}

// newContext creates a fresh chromedp context (one browser, one tab).
func (s *Scraper) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

type scrapedReview struct {
	Author string `json:"author"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// ScrapeReviews collects up to maxReviews rendered reviews. A timeout at any
// wait point aborts gracefully: browser resources are released and whatever
// was collected so far is returned. Review IDs are synthesized per run
// ("scrape_0", "scrape_1", ...) since the page exposes no durable upstream
// identifier.
func (s *Scraper) ScrapeReviews(ctx context.Context, placeID string, maxReviews int) ([]domain.RawReview, error) {
	bctx, cancel := s.newContext(ctx)
	defer cancel()

	bctx, cancelTimeout := context.WithTimeout(bctx, s.timeout)
	defer cancelTimeout()

	pageURL := fmt.Sprintf("%s?q=place_id:%s", s.baseURL, placeID)
	log.Info().Str("place_id", placeID).Str("url", pageURL).Msg("scraping reviews via browser")

	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(4*time.Second), // give JS time to render
	)
	if err != nil {
		return nil, fmt.Errorf("navigate failed: %w", err)
	}

	// Open the reviews panel; selectors vary, so try a few.
	var opened bool
	_ = chromedp.Run(bctx, chromedp.Evaluate(`
		(function() {
			var btns = document.querySelectorAll('button, [role="tab"]');
			for (var i = 0; i < btns.length; i++) {
				var t = (btns[i].innerText || '').toLowerCase();
				if (t.indexOf('review') !== -1) {
					btns[i].click();
					return true;
				}
			}
			return false;
		})()
	`, &opened))
	if !opened {
		log.Warn().Str("place_id", placeID).Msg("reviews panel not found")
	}
	_ = chromedp.Run(bctx, chromedp.Sleep(2*time.Second))

	var collected []scrapedReview
	lastCount := -1
	for len(collected) < maxReviews && len(collected) != lastCount {
		lastCount = len(collected)

		// Scroll the review feed so more elements render.
		scrollErr := chromedp.Run(bctx,
			chromedp.Evaluate(`
				(function() {
					var feed = document.querySelector('div[role="feed"]') ||
					           document.querySelector('div[class*="review"]');
					if (feed) feed.scrollTop += 1000;
				})()
			`, nil),
			chromedp.Sleep(2*time.Second),
		)
		if scrollErr != nil {
			// timed out mid-scroll; keep what we have
			log.Warn().Err(scrollErr).Str("place_id", placeID).Msg("scroll aborted")
			break
		}

		// Re-extract the full rendered set; each field independently
		// falls back to a zero value.
		var batch []scrapedReview
		if err := chromedp.Run(bctx, chromedp.Evaluate(reviewExtractionJS, &batch)); err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Msg("review extraction aborted")
			break
		}
		if len(batch) > maxReviews {
			batch = batch[:maxReviews]
		}
		collected = batch
	}

	now := time.Now().Unix()
	out := make([]domain.RawReview, 0, len(collected))
	for i, sr := range collected {
		out = append(out, domain.RawReview{
			SourceID: fmt.Sprintf("scrape_%d", i),
			Author:   sr.Author,
			Rating:   sr.Rating,
			Text:     sr.Text,
			PostedAt: now,
			Language: "en",
		})
	}
	log.Info().Str("place_id", placeID).Int("count", len(out)).Msg("browser scrape finished")
	return out, nil
}

const reviewExtractionJS = `
(function() {
	var results = [];
	var els = document.querySelectorAll('div[data-review-id], div[class*="review"]');
	els.forEach(function(el) {
		var author = '';
		var rating = 0;
		var text = '';
		try {
			var a = el.querySelector('[class*="author"], [class*="title"] span, .d4r55');
			if (a) author = a.innerText.trim();
		} catch (e) {}
		try {
			var r = el.querySelector('[aria-label*="star"]');
			if (r) {
				var m = (r.getAttribute('aria-label') || '').match(/(\d)/);
				if (m) rating = parseInt(m[1], 10);
			} else {
				rating = el.querySelectorAll('img[class*="star-active"], span[class*="star-full"]').length;
			}
		} catch (e) {}
		try {
			var t = el.querySelector('span[class*="review-text"], span[jsname], .wiI7pd');
			if (t) text = t.innerText.trim();
		} catch (e) {}
		if (author || text || rating) {
			results.push({author: author, rating: rating, text: text});
		}
	});
	return results;
})()
`
