package httpstages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dcshock/corridor/pipeline"
)

// Get returns a step that performs an HTTP GET to the fixed url and returns the response body as []byte.
// The execution context is used for the request. If client is nil, http.DefaultClient is used.
func Get(client *http.Client, url string) pipeline.Step {
	if client == nil {
		client = http.DefaultClient
	}
	return pipeline.Func(func(ctx context.Context, _ interface{}) (interface{}, error) {
		return get(ctx, client, "http get", url)
	})
}

// Fetch returns an asynchronous step that performs an HTTP GET to the URL it receives.
// Input must be a string URL. The waterfall waits for the response body ([]byte).
// If client is nil, http.DefaultClient is used.
func Fetch(client *http.Client) pipeline.Step {
	if client == nil {
		client = http.DefaultClient
	}
	return pipeline.Async(func(ctx context.Context, url string) pipeline.Future {
		return pipeline.Go(func() (interface{}, error) {
			return get(ctx, client, "http fetch", url)
		})
	})
}

func get(ctx context.Context, client *http.Client, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %q: read body: %w", op, url, err)
	}
	return body, nil
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %q: status %d", e.URL, e.Code)
}
