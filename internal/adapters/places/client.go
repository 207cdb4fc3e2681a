// internal/adapters/places/client.go
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"placepulse/internal/adapters/observability"
	"placepulse/internal/domain"
)

// Client talks to the structured place-details endpoint. All failures of
// this path wrap domain.ErrAcquisition so the caller can decide to fall
// back; partial page results are never returned.
type Client struct {
	base      string
	hc        *http.Client
	key       string
	rl        *rate.Limiter
	pageDelay time.Duration
}

func New(base, key string, rps int, pageDelay time.Duration) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		hc:        &http.Client{Timeout: 20 * time.Second},
		key:       key,
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		pageDelay: pageDelay,
	}
}

// ---- wire shapes ----

type detailsPayload struct {
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	NextPageToken string `json:"next_page_token"`
	Result        struct {
		Name         string      `json:"name"`
		Address      string      `json:"formatted_address"`
		Phone        string      `json:"formatted_phone_number"`
		Website      string      `json:"website"`
		Rating       float64     `json:"rating"`
		TotalRatings int         `json:"user_ratings_total"`
		Reviews      []wireReview `json:"reviews"`
	} `json:"result"`
}

type wireReview struct {
	AuthorName      string  `json:"author_name"`
	Rating          float64 `json:"rating"`
	Text            string  `json:"text"`
	Time            int64   `json:"time"`
	Language        string  `json:"language"`
	ProfilePhotoURL string  `json:"profile_photo_url"`
}

// ---- Public API ----

// FetchReviews pulls review pages until maxReviews is reached, the
// continuation token runs out, or a page comes back empty. A mandatory
// delay separates consecutive page fetches.
func (c *Client) FetchReviews(ctx context.Context, placeID string, maxReviews int) ([]domain.RawReview, error) {
	if c.key == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrAcquisition, domain.ErrNoCredential)
	}

	var out []domain.RawReview
	var pageToken string
	for len(out) < maxReviews {
		p, err := c.getDetails(ctx, placeID, "reviews", pageToken)
		if err != nil {
			return nil, err
		}

		page := p.Result.Reviews
		for _, wr := range page {
			out = append(out, normalize(wr))
			if len(out) >= maxReviews {
				break
			}
		}

		pageToken = p.NextPageToken
		if pageToken == "" || len(page) == 0 {
			break
		}
		if !sleepCtx(ctx, c.pageDelay) {
			return nil, ctx.Err()
		}
	}
	return out, nil
}

// GetBusinessInfo fetches the place profile. There is no fallback for this
// call: a missing credential or upstream error is fatal for the run.
func (c *Client) GetBusinessInfo(ctx context.Context, placeID string) (domain.Business, error) {
	if c.key == "" {
		return domain.Business{}, domain.ErrNoCredential
	}
	p, err := c.getDetails(ctx, placeID, "name,formatted_address,formatted_phone_number,rating,user_ratings_total,website", "")
	if err != nil {
		return domain.Business{}, err
	}
	return domain.Business{
		PlaceID:      placeID,
		Name:         p.Result.Name,
		Address:      p.Result.Address,
		Phone:        p.Result.Phone,
		Website:      p.Result.Website,
		Rating:       p.Result.Rating,
		TotalRatings: p.Result.TotalRatings,
		LastUpdated:  time.Now().Unix(),
	}, nil
}

// ---- internals ----

func normalize(wr wireReview) domain.RawReview {
	lang := wr.Language
	if lang == "" {
		lang = "en"
	}
	// The upstream exposes no durable review key; the post timestamp is
	// unique per author page and serves as the source ID.
	return domain.RawReview{
		SourceID:  strconv.FormatInt(wr.Time, 10),
		Author:    wr.AuthorName,
		Rating:    int(wr.Rating),
		Text:      wr.Text,
		PostedAt:  wr.Time,
		Language:  lang,
		AvatarURL: wr.ProfilePhotoURL,
	}
}

// getDetails performs one details call with client-side rate limiting.
// 429 and transient 5xx are retried with backoff, honoring Retry-After,
// before the attempt is declared unusable via domain.ErrAcquisition.
func (c *Client) getDetails(ctx context.Context, placeID, fields, pageToken string) (*detailsPayload, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", fields)
	q.Set("key", c.key)
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	}
	u := c.base + "/details/json?" + q.Encode()

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "placepulse/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal("places", "details", 0, time.Since(start))
			lastErr = fmt.Errorf("%w: request: %v", domain.ErrAcquisition, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("places", "details", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			var p detailsPayload
			err := json.NewDecoder(resp.Body).Decode(&p)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: decode: %v", domain.ErrAcquisition, err)
			}
			if p.Status != "OK" {
				return nil, fmt.Errorf("%w: upstream status %s: %s", domain.ErrAcquisition, p.Status, p.ErrorMessage)
			}
			return &p, nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAcquisition, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrAcquisition, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
