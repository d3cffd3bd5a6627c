// Package chain is the HTTP client for the ledger gateway, the internal
// service that signs and submits on-chain entry calls and exposes read views
// over ledger objects. The application treats the ledger as an external
// store with per-transaction atomicity; no call here retries.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ledgerworld/internal/domain/ledger"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetMatch(ctx context.Context, matchID string) (ledger.Match, error) {
	var m ledger.Match
	if err := c.getJSON(ctx, "/v1/matches/"+url.PathEscape(matchID), &m); err != nil {
		return ledger.Match{}, fmt.Errorf("get match %s: %w", matchID, err)
	}
	return m, nil
}

// GetResources returns nil without error when the address has no balance
// record on the ledger yet.
func (c *Client) GetResources(ctx context.Context, addr string) (*ledger.Resources, error) {
	var r ledger.Resources
	err := c.getJSON(ctx, "/v1/accounts/"+url.PathEscape(addr)+"/resources", &r)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resources %s: %w", addr, err)
	}
	return &r, nil
}

// GetOwnedGenerators lists the generator objects currently held by one
// address. The ledger's object model is ownership-indexed, so this is the
// only generator listing primitive the gateway offers.
func (c *Client) GetOwnedGenerators(ctx context.Context, addr string) ([]ledger.Generator, error) {
	var out struct {
		Items []ledger.Generator `json:"items"`
	}
	if err := c.getJSON(ctx, "/v1/accounts/"+url.PathEscape(addr)+"/generators", &out); err != nil {
		return nil, fmt.Errorf("get generators %s: %w", addr, err)
	}
	return out.Items, nil
}

func (c *Client) GetTradesInvolving(ctx context.Context, addr string) ([]ledger.TradeProposal, error) {
	var out struct {
		Items []ledger.TradeProposal `json:"items"`
	}
	if err := c.getJSON(ctx, "/v1/accounts/"+url.PathEscape(addr)+"/trades", &out); err != nil {
		return nil, fmt.Errorf("get trades %s: %w", addr, err)
	}
	return out.Items, nil
}

func (c *Client) RegisterAccount(ctx context.Context) (ledger.Account, error) {
	var acc struct {
		Address    string `json:"address"`
		PublicKey  string `json:"public_key"`
		PrivateKey string `json:"private_key"`
	}
	if err := c.postJSON(ctx, "/v1/accounts", map[string]any{}, &acc); err != nil {
		return ledger.Account{}, fmt.Errorf("register account: %w", err)
	}
	return ledger.Account{Address: acc.Address, PublicKey: acc.PublicKey, PrivateKey: acc.PrivateKey}, nil
}

func (c *Client) ClaimGenerator(ctx context.Context, signerKey, objectID string) error {
	err := c.postJSON(ctx, "/v1/tx/claim_generator", map[string]any{
		"signer_key": signerKey,
		"generator":  objectID,
	}, nil)
	if err != nil {
		return fmt.Errorf("claim generator %s: %w", objectID, err)
	}
	return nil
}

func (c *Client) RecaptureGenerator(ctx context.Context, signerKey, objectID string) error {
	err := c.postJSON(ctx, "/v1/tx/recapture_generator", map[string]any{
		"signer_key": signerKey,
		"generator":  objectID,
	}, nil)
	if err != nil {
		return fmt.Errorf("recapture generator %s: %w", objectID, err)
	}
	return nil
}

func (c *Client) ProposeTrade(ctx context.Context, signerKey, matchID, target string, offer, request ledger.ResourceSet) (string, error) {
	var out struct {
		ObjectID string `json:"object_id"`
	}
	err := c.postJSON(ctx, "/v1/tx/propose_trade", map[string]any{
		"signer_key": signerKey,
		"match":      matchID,
		"target":     target,
		"offer":      offer,
		"request":    request,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("propose trade: %w", err)
	}
	return out.ObjectID, nil
}

func (c *Client) AcceptTrade(ctx context.Context, signerKey, tradeID string) error {
	err := c.postJSON(ctx, "/v1/tx/accept_trade", map[string]any{
		"signer_key": signerKey,
		"trade":      tradeID,
	}, nil)
	if err != nil {
		return fmt.Errorf("accept trade %s: %w", tradeID, err)
	}
	return nil
}

func (c *Client) CancelTrade(ctx context.Context, signerKey, tradeID string) error {
	err := c.postJSON(ctx, "/v1/tx/cancel_trade", map[string]any{
		"signer_key": signerKey,
		"trade":      tradeID,
	}, nil)
	if err != nil {
		return fmt.Errorf("cancel trade %s: %w", tradeID, err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
