// Package gateway implements the ledger capabilities against the
// companion RPC gateway, a thin HTTP service that owns the XDR codec and
// transaction signing assembly. Everything crossing this boundary is
// native JSON; the gateway translates to and from the network's wire
// forms.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/ledger"
)

// Client talks to one gateway instance. It implements ledger.QueryClient,
// ledger.Invoker and ledger.ScoreReader.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ ledger.QueryClient = (*Client)(nil)
	_ ledger.Invoker     = (*Client)(nil)
	_ ledger.ScoreReader = (*Client)(nil)
)

// New creates a Client for the gateway at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

// GetLatestLedgerSequence returns the sequence of the most recently closed
// ledger.
func (c *Client) GetLatestLedgerSequence(ctx context.Context) (uint32, error) {
	var resp struct {
		Sequence uint32 `json:"sequence"`
	}
	if err := c.get(ctx, pathLatestLedger, &resp); err != nil {
		return 0, err
	}
	return resp.Sequence, nil
}

// GetEvents returns one page of contract events matching filter.
func (c *Client) GetEvents(ctx context.Context, filter ledger.EventFilter, cursor string, startLedger uint32, limit int) (ledger.EventPage, error) {
	req := struct {
		ContractID  string          `json:"contract_id"`
		Players     []domain.Player `json:"players"`
		Cursor      string          `json:"cursor,omitempty"`
		StartLedger uint32          `json:"start_ledger,omitempty"`
		Limit       int             `json:"limit"`
	}{
		ContractID:  filter.ContractID,
		Players:     filter.Players,
		Cursor:      cursor,
		StartLedger: startLedger,
		Limit:       limit,
	}

	var page ledger.EventPage
	if err := c.post(ctx, pathEvents, req, &page); err != nil {
		return ledger.EventPage{}, err
	}
	return page, nil
}

// SimulateRoll dry-runs the roll invocation.
func (c *Client) SimulateRoll(ctx context.Context, player domain.Player, save []int, stop bool) (*ledger.AssembledTx, error) {
	req := struct {
		Player domain.Player `json:"player"`
		Save   []int         `json:"save"`
		Stop   bool          `json:"stop"`
	}{Player: player, Save: save, Stop: stop}

	return c.simulate(ctx, pathSimulateRoll, req)
}

// SimulateDeposit dry-runs the deposit invocation.
func (c *Client) SimulateDeposit(ctx context.Context, to domain.Player, amount int64) (*ledger.AssembledTx, error) {
	req := struct {
		To     domain.Player `json:"to"`
		Amount int64         `json:"amount"`
	}{To: to, Amount: amount}

	return c.simulate(ctx, pathSimulateDeposit, req)
}

// SimulateWithdraw dry-runs the withdraw invocation.
func (c *Client) SimulateWithdraw(ctx context.Context, from domain.Player) (*ledger.AssembledTx, error) {
	req := struct {
		From domain.Player `json:"from"`
	}{From: from}

	return c.simulate(ctx, pathSimulateWithdraw, req)
}

// Submit signs and sends the assembled transaction and awaits settlement.
func (c *Client) Submit(ctx context.Context, tx *ledger.AssembledTx) (*ledger.TxResult, error) {
	req := struct {
		Function  string           `json:"function"`
		Args      []any            `json:"args"`
		Footprint ledger.Footprint `json:"footprint"`
	}{Function: tx.Function, Args: tx.Args, Footprint: tx.Footprint}

	var result ledger.TxResult
	if err := c.post(ctx, pathSubmit, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadScore returns player's banked total.
func (c *Client) ReadScore(ctx context.Context, player domain.Player) (int, error) {
	var resp struct {
		Score int `json:"score"`
	}
	if err := c.get(ctx, pathScore+url.PathEscape(string(player)), &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// ReadBalance returns player's in-game balance in smallest units. The
// contract reports -1 for a player with no deposit; that reads as zero.
func (c *Client) ReadBalance(ctx context.Context, player domain.Player) (int64, error) {
	var resp struct {
		Balance int64 `json:"balance"`
	}
	if err := c.get(ctx, pathBalance+url.PathEscape(string(player)), &resp); err != nil {
		return 0, err
	}
	if resp.Balance < 0 {
		return 0, nil
	}
	return resp.Balance, nil
}

func (c *Client) simulate(ctx context.Context, path string, req any) (*ledger.AssembledTx, error) {
	var tx ledger.AssembledTx
	if err := c.post(ctx, path, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes req and decodes the response. A 4xx is a rejection the
// caller caused; anything else that is not a 2xx counts as transient.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := strings.TrimSpace(string(body))

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%w: gateway returned %d: %s", domain.ErrSubmissionRejected, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: gateway returned %d: %s", domain.ErrNetworkTransient, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	return nil
}
