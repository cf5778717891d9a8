// Package relay speaks the matchmaking relay's websocket protocol. The
// relay pairs waiting players, brokers the authorization handshake for the
// engage transaction and announces the resulting match.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/logger"
)

// envelope frames every relay message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRequest enters the matchmaking queue.
type JoinRequest struct {
	Address  domain.Player `json:"address"`
	Username string        `json:"username,omitempty"`
}

// AuthRequest asks the client to authorize the engage transaction the relay
// assembled on its behalf.
type AuthRequest struct {
	// Entry is the base64 auth-entry payload to sign.
	Entry string `json:"entry"`

	// LatestLedger anchors the signature's validity horizon.
	LatestLedger uint32 `json:"latest_ledger"`

	NetworkPassphrase string `json:"network_passphrase"`
}

// AuthResponse returns the signed auth entry.
type AuthResponse struct {
	Address         domain.Player `json:"address"`
	Signature       string        `json:"signature"`
	LastValidLedger uint32        `json:"last_valid_ledger"`
}

// MatchStart announces a paired match. MatchID carries the relay's
// "<id>|<opponent>" form; the session splits it.
type MatchStart struct {
	MatchID string `json:"match_id"`
}

// MatchError reports a matchmaking failure.
type MatchError struct {
	Message string `json:"message"`
}

// Handler receives inbound relay traffic. Implementations run on the read
// loop goroutine; a HandleAuthRequest error is reported like a MatchError.
type Handler interface {
	HandleAuthRequest(ctx context.Context, req AuthRequest) (AuthResponse, error)
	HandleMatchStart(ctx context.Context, start MatchStart) error
	HandleMatchError(ctx context.Context, relayErr MatchError)
}

// Client is one live relay connection. Closing and redialing is the only
// way to leave the queue; the protocol has no cancel message.
type Client struct {
	conn    *websocket.Conn
	handler Handler

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to the relay and starts the read loop.
func Dial(ctx context.Context, url string, handler Handler) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkTransient, err)
	}

	c := &Client{
		conn:    conn,
		handler: handler,
		done:    make(chan struct{}),
	}

	logger.FromContext(ctx).Info(LogMsgConnected, "url", url)
	go c.readLoop(context.WithoutCancel(ctx))
	return c, nil
}

// Join enters the matchmaking queue.
func (c *Client) Join(ctx context.Context, req JoinRequest) error {
	return c.send(TypeJoin, req)
}

// Done closes when the connection is gone; Err reports why.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the read loop's terminal error, nil after a clean Close.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close tears the connection down. The read loop exits shortly after.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(envelope{Type: msgType, Data: raw}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkTransient, err)
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	log := logger.FromContext(ctx)

	defer func() {
		c.closeOnce.Do(func() { _ = c.conn.Close() })
		close(c.done)
		log.Info(LogMsgDisconnected, "error", c.err)
	}()

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			return
		}

		if err := c.dispatch(ctx, env); err != nil {
			log.Warn(LogMsgMalformedMessage, "type", env.Type, "error", err)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, env envelope) error {
	log := logger.FromContext(ctx)

	switch env.Type {
	case TypeAuthRequest:
		var req AuthRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return err
		}
		log.Info(LogMsgAuthRequested, "latest_ledger", req.LatestLedger)

		resp, err := c.handler.HandleAuthRequest(ctx, req)
		if err != nil {
			log.Error(LogMsgAuthHandlerFailed, "error", err)
			c.handler.HandleMatchError(ctx, MatchError{Message: err.Error()})
			return nil
		}
		return c.send(TypeAuthResponse, resp)

	case TypeMatchStart:
		var start MatchStart
		if err := json.Unmarshal(env.Data, &start); err != nil {
			return err
		}
		log.Info(LogMsgMatchStarted, "match_id", start.MatchID)
		return c.handler.HandleMatchStart(ctx, start)

	case TypeMatchError:
		var relayErr MatchError
		if err := json.Unmarshal(env.Data, &relayErr); err != nil {
			return err
		}
		log.Warn(LogMsgMatchError, "message", relayErr.Message)
		c.handler.HandleMatchError(ctx, relayErr)
		return nil

	default:
		log.Warn(LogMsgUnknownMessage, "type", env.Type)
		return nil
	}
}
