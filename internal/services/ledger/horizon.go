// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// DefaultHorizonURL is the public testnet Horizon.
const DefaultHorizonURL = "https://horizon-testnet.stellar.org"

// AddSignerTimeout is how long a built co-signer transaction stays valid.
const AddSignerTimeout = 180 * time.Second

// Horizon implements Oracle, AccountReader, SignerBuilder and Relay against
// a Horizon server.
type Horizon struct {
	baseURL string
	http    *http.Client
}

// NewHorizon creates a Horizon client. timeout bounds every request.
func NewHorizon(baseURL string, timeout time.Duration) *Horizon {
	if baseURL == "" {
		baseURL = DefaultHorizonURL
	}
	return &Horizon{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the Horizon server URL.
func (h *Horizon) BaseURL() string {
	return h.baseURL
}

// client returns an SDK client whose requests carry ctx.
func (h *Horizon) client(ctx context.Context) *horizonclient.Client {
	return &horizonclient.Client{
		HorizonURL: h.baseURL + "/",
		HTTP:       ctxHTTP{ctx: ctx, client: h.http},
	}
}

// LastActivity implements Oracle.
func (h *Horizon) LastActivity(ctx context.Context, accountID string) (time.Time, bool, error) {
	page, err := h.client(ctx).Transactions(horizonclient.TransactionRequest{
		ForAccount: accountID,
		Order:      horizonclient.OrderDesc,
		Limit:      1,
	})
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, unavailable("transactions", err)
	}
	if len(page.Embedded.Records) == 0 || page.Embedded.Records[0].LedgerCloseTime.IsZero() {
		return time.Time{}, false, nil
	}
	return page.Embedded.Records[0].LedgerCloseTime.UTC(), true, nil
}

// Account implements AccountReader.
func (h *Horizon) Account(ctx context.Context, accountID string) (json.RawMessage, error) {
	acct, err := h.client(ctx).AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, unavailable("account", err)
	}
	raw, err := json.Marshal(acct)
	if err != nil {
		return nil, fmt.Errorf("encoding account snapshot: %w", err)
	}
	return raw, nil
}

// BuildAddSigner implements SignerBuilder. The transaction uses the
// account's next sequence number and the minimum base fee.
func (h *Horizon) BuildAddSigner(ctx context.Context, accountID, signer string) (string, error) {
	acct, err := h.client(ctx).AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		if isNotFound(err) {
			return "", ErrAccountNotFound
		}
		return "", unavailable("account", err)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &acct,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.SetOptions{Signer: &txnbuild.Signer{Address: signer, Weight: 1}},
		},
		BaseFee:       txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(int64(AddSignerTimeout / time.Second))},
	})
	if err != nil {
		return "", fmt.Errorf("building set_options transaction: %w", err)
	}
	envelope, err := tx.Base64()
	if err != nil {
		return "", fmt.Errorf("encoding set_options transaction: %w", err)
	}
	return envelope, nil
}

// SubmitTransaction implements Relay. Client errors from Horizon come back
// as *UpstreamError; server errors count as ErrUnavailable.
func (h *Horizon) SubmitTransaction(ctx context.Context, envelopeXDR string) (*SubmitResult, error) {
	tx, err := h.client(ctx).SubmitTransactionXDR(envelopeXDR)
	if err != nil {
		if hErr := horizonclient.GetError(err); hErr != nil {
			return nil, rejection(hErr)
		}
		return nil, unavailable("submit", err)
	}
	if tx.Hash == "" {
		return nil, &UpstreamError{Status: http.StatusOK, Detail: "response has no transaction hash"}
	}
	return &SubmitResult{Hash: tx.Hash, Successful: tx.Successful}, nil
}

func rejection(hErr *horizonclient.Error) error {
	status := hErr.Problem.Status
	if status == 0 && hErr.Response != nil {
		status = hErr.Response.StatusCode
	}
	detail := hErr.Problem.Detail
	if detail == "" {
		detail = hErr.Problem.Title
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: horizon returned %d: %s", ErrUnavailable, status, detail)
	}

	body, err := json.Marshal(hErr.Problem)
	if err != nil {
		body = nil
	}
	return &UpstreamError{Status: status, Detail: detail, Body: body}
}

func isNotFound(err error) bool {
	if horizonclient.IsNotFoundError(err) {
		return true
	}
	hErr := horizonclient.GetError(err)
	return hErr != nil && (hErr.Problem.Status == http.StatusNotFound ||
		hErr.Response != nil && hErr.Response.StatusCode == http.StatusNotFound)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// ctxHTTP binds the SDK's requests to a context.
type ctxHTTP struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxHTTP) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

func (c ctxHTTP) Get(rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c ctxHTTP) PostForm(rawURL string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, rawURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.client.Do(req)
}
