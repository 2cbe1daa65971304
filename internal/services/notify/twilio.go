// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultTwilioBaseURL is the Twilio REST API origin.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig holds Twilio credentials.
type TwilioConfig struct { //nolint:govet // fieldalignment not critical for config structs
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string // replaces the API origin, for regional proxies and tests
	Timeout    time.Duration
}

// messageCreator is the part of the Twilio API used here.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// Twilio sends claim notifications as SMS through the Twilio Messages API.
type Twilio struct {
	cfg      TwilioConfig
	api      messageCreator
	composer *Composer
}

// NewTwilio creates a Twilio notifier.
func NewTwilio(cfg TwilioConfig, composer *Composer) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: twilio account SID and auth token are required", ErrNotConfigured)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: twilio sender number is required", ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if strings.TrimSuffix(cfg.BaseURL, "/") != DefaultTwilioBaseURL {
		origin, err := url.Parse(cfg.BaseURL)
		if err != nil || origin.Scheme == "" || origin.Host == "" {
			return nil, fmt.Errorf("%w: invalid twilio base URL %q", ErrNotConfigured, cfg.BaseURL)
		}
		httpClient.Transport = originRewriter{origin: origin, next: http.DefaultTransport}
	}

	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{Client: base})

	return &Twilio{cfg: cfg, api: rest.Api, composer: composer}, nil
}

// SendClaim implements Notifier. The SDK call itself is bounded by the
// configured timeout; ctx cancels the wait for it.
func (t *Twilio) SendClaim(ctx context.Context, msg Message) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetPathAccountSid(t.cfg.AccountSID)
	params.SetTo(msg.Phone)
	params.SetFrom(t.cfg.From)
	params.SetBody(t.composer.Body(ctx, msg))

	done := make(chan error, 1)
	go func() {
		_, err := t.api.CreateMessage(params)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
	case err := <-done:
		return deliveryError(err)
	}
}

func deliveryError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return fmt.Errorf("%w: twilio %d (code %d): %s", ErrDeliveryFailed, restErr.Status, restErr.Code, restErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
}

// originRewriter sends every request to origin, keeping path and query.
type originRewriter struct {
	origin *url.URL
	next   http.RoundTripper
}

func (o originRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = o.origin.Scheme
	out.URL.Host = o.origin.Host
	out.Host = o.origin.Host
	return o.next.RoundTrip(out)
}
