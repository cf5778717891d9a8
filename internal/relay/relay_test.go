package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farklezone/farkle-client/internal/domain"
)

const player = domain.Player("GPLAYER")

// stubHandler records inbound traffic.
type stubHandler struct {
	mu        sync.Mutex
	authReqs  []AuthRequest
	starts    []MatchStart
	relayErrs []MatchError
	authErr   error

	matchCh chan MatchStart
	errCh   chan MatchError
}

func newStubHandler() *stubHandler {
	return &stubHandler{
		matchCh: make(chan MatchStart, 1),
		errCh:   make(chan MatchError, 1),
	}
}

func (h *stubHandler) HandleAuthRequest(ctx context.Context, req AuthRequest) (AuthResponse, error) {
	h.mu.Lock()
	h.authReqs = append(h.authReqs, req)
	h.mu.Unlock()
	if h.authErr != nil {
		return AuthResponse{}, h.authErr
	}
	return AuthResponse{
		Address:         player,
		Signature:       "c2lnbmF0dXJl",
		LastValidLedger: req.LatestLedger + 12,
	}, nil
}

func (h *stubHandler) HandleMatchStart(ctx context.Context, start MatchStart) error {
	h.mu.Lock()
	h.starts = append(h.starts, start)
	h.mu.Unlock()
	h.matchCh <- start
	return nil
}

func (h *stubHandler) HandleMatchError(ctx context.Context, relayErr MatchError) {
	h.mu.Lock()
	h.relayErrs = append(h.relayErrs, relayErr)
	h.mu.Unlock()
	h.errCh <- relayErr
}

// fakeRelay runs script against each accepted connection.
func fakeRelay(t *testing.T, script func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		script(t, conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(envelope{Type: msgType, Data: raw}))
}

func TestJoinAuthMatchFlow(t *testing.T) {
	srv := fakeRelay(t, func(t *testing.T, conn *websocket.Conn) {
		env := readEnvelope(t, conn)
		assert.Equal(t, TypeJoin, env.Type)

		var join JoinRequest
		require.NoError(t, json.Unmarshal(env.Data, &join))
		assert.Equal(t, player, join.Address)

		sendEnvelope(t, conn, TypeAuthRequest, AuthRequest{Entry: "ZW50cnk=", LatestLedger: 1000})

		env = readEnvelope(t, conn)
		assert.Equal(t, TypeAuthResponse, env.Type)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, uint32(1012), resp.LastValidLedger)

		sendEnvelope(t, conn, TypeMatchStart, MatchStart{MatchID: "m-1|GRIVAL"})
	})

	handler := newStubHandler()
	client, err := Dial(context.Background(), wsURL(srv), handler)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Join(context.Background(), JoinRequest{Address: player, Username: "alice"}))

	select {
	case start := <-handler.matchCh:
		assert.Equal(t, "m-1|GRIVAL", start.MatchID)
	case <-time.After(2 * time.Second):
		t.Fatal("match start never arrived")
	}
}

func TestAuthHandlerFailureReportsMatchError(t *testing.T) {
	srv := fakeRelay(t, func(t *testing.T, conn *websocket.Conn) {
		sendEnvelope(t, conn, TypeAuthRequest, AuthRequest{Entry: "ZW50cnk=", LatestLedger: 5})
		// Hold the connection open while the client reacts.
		_, _, _ = conn.ReadMessage()
	})

	handler := newStubHandler()
	handler.authErr = errors.New("wallet locked")

	client, err := Dial(context.Background(), wsURL(srv), handler)
	require.NoError(t, err)
	defer client.Close()

	select {
	case relayErr := <-handler.errCh:
		assert.Contains(t, relayErr.Message, "wallet locked")
	case <-time.After(2 * time.Second):
		t.Fatal("auth failure was not surfaced")
	}
}

func TestUnknownAndMalformedMessagesAreSkipped(t *testing.T) {
	srv := fakeRelay(t, func(t *testing.T, conn *websocket.Conn) {
		require.NoError(t, conn.WriteJSON(envelope{Type: "jackpot"}))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"match_start","data":42}`)))
		sendEnvelope(t, conn, TypeMatchStart, MatchStart{MatchID: "m-2|GRIVAL"})
	})

	handler := newStubHandler()
	client, err := Dial(context.Background(), wsURL(srv), handler)
	require.NoError(t, err)
	defer client.Close()

	// The stream survives junk; the real announcement still lands.
	select {
	case start := <-handler.matchCh:
		assert.Equal(t, "m-2|GRIVAL", start.MatchID)
	case <-time.After(2 * time.Second):
		t.Fatal("match start never arrived")
	}
}

func TestDoneClosesOnDisconnect(t *testing.T) {
	srv := fakeRelay(t, func(t *testing.T, conn *websocket.Conn) {
		// Immediate server-side close.
	})

	client, err := Dial(context.Background(), wsURL(srv), newStubHandler())
	require.NoError(t, err)

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done never closed")
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/relay", newStubHandler())
	assert.ErrorIs(t, err, domain.ErrNetworkTransient)
}
