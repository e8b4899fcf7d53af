package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// maxPageBytes caps how much of a page is read.
const maxPageBytes = 4 << 20

// Page is a fetched document.
type Page struct {
	Status int
	Body   []byte
}

// Doer performs a single GET.
type Doer interface {
	Get(ctx context.Context, url string, headers map[string]string) (Page, error)
}

// stealthDoer sends requests with a Chrome TLS fingerprint.
type stealthDoer struct {
	client *stealth.BrowserClient
}

// NewStealthDoer builds a Doer on a go-stealth browser client.
func NewStealthDoer(timeoutSeconds int) (Doer, error) {
	client, err := stealth.NewClient(stealth.WithTimeout(timeoutSeconds))
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return &stealthDoer{client: client}, nil
}

func (d *stealthDoer) Get(ctx context.Context, url string, headers map[string]string) (Page, error) {
	return stealth.RetryDo(ctx, stealth.DefaultRetryConfig, func() (Page, error) {
		type result struct {
			page Page
			err  error
		}
		done := make(chan result, 1)
		go func() {
			data, _, status, err := d.client.Do(http.MethodGet, url, headers, nil)
			done <- result{page: Page{Status: status, Body: data}, err: err}
		}()
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case res := <-done:
			if res.err != nil {
				return Page{}, res.err
			}
			// Blocking statuses are classified by the caller, not retried.
			if res.page.Status >= 500 && stealth.IsRetryableStatus(res.page.Status) {
				return Page{}, fmt.Errorf("status %d", res.page.Status)
			}
			return res.page, nil
		}
	})
}

// HTTPDoer is the plain net/http fallback used when the stealth client cannot
// be built, and by tests.
type HTTPDoer struct {
	Client *http.Client
}

// Get implements Doer.
func (d HTTPDoer) Get(ctx context.Context, url string, headers map[string]string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, err
	}
	return Page{Status: resp.StatusCode, Body: body}, nil
}

func browserHeaders(referer string) map[string]string {
	headers := stealth.ChromeHeaders()
	headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9"
	if referer != "" {
		headers["referer"] = referer
	}
	return headers
}
