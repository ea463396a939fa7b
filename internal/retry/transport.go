package retry

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries round trips that Policy accepts, waiting as long as
// Backoff says between attempts. Requests with a body are replayed through
// GetBody and are sent once when it is unset.
type Transport struct {
	Base    http.RoundTripper
	Backoff Backoff
	Policy  *Policy
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()
	for retry := uint(0); ; retry++ {
		attempt := request
		if retry > 0 {
			var err error
			attempt, err = rewind(request)
			if err != nil {
				return nil, err
			}
		}

		response, err := t.base().RoundTrip(attempt)
		if !t.shouldRetry(request, response, err) {
			return response, err
		}

		delay, ok := t.backoff().Next(retry)
		if !ok {
			return response, err
		}
		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			_ = response.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *Transport) shouldRetry(request *http.Request, response *http.Response, err error) bool {
	if t.Policy == nil {
		return false
	}
	if request.Body != nil && request.Body != http.NoBody && request.GetBody == nil {
		return false
	}
	if err != nil {
		return t.Policy.RetryableError(err)
	}
	return t.Policy.RetryableResponse(response)
}

func rewind(request *http.Request) (*http.Request, error) {
	clone := request.Clone(request.Context())
	if request.GetBody == nil {
		return clone, nil
	}
	body, err := request.GetBody()
	if err != nil {
		return nil, xerrors.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) backoff() Backoff {
	if t.Backoff != nil {
		return t.Backoff
	}
	return NoRetry()
}
