// Package notify renders burn events and delivers them to the configured
// sinks. A failing sink never affects the others or the caller.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/brojonat/burnwatch/service/burn"
	"resty.dev/v3"
)

// Sink delivers one burn event to a destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev *burn.Event) error
}

// DeliveryError is a non-2xx response from a sink endpoint.
type DeliveryError struct {
	Sink       string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Sink, e.StatusCode, e.Body)
}

func newRestyClient(hc *http.Client) *resty.Client {
	if hc != nil {
		return resty.NewWithClient(hc)
	}
	return resty.New()
}

func checkDelivery(sink string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", sink, err)
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 256 {
			body = body[:256]
		}
		return &DeliveryError{Sink: sink, StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}
