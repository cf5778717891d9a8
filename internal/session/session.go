// Package session owns one player's client lifecycle: the matchmaking
// relay channel, the per-match event poller and the reconciler it feeds,
// plus the wallet-backed money operations. The HTTP layer talks to the
// session only.
package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/farklezone/farkle-client/internal/config"
	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/event"
	"github.com/farklezone/farkle-client/internal/ledger"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/match"
	"github.com/farklezone/farkle-client/internal/poller"
	"github.com/farklezone/farkle-client/internal/relay"
	"github.com/farklezone/farkle-client/internal/scheduler"
	"github.com/farklezone/farkle-client/internal/store"
	"github.com/farklezone/farkle-client/internal/txguard"
	"github.com/farklezone/farkle-client/internal/wallet"
)

// dialFunc matches relay.Dial; injectable for tests.
type dialFunc func(ctx context.Context, url string, handler relay.Handler) (*relay.Client, error)

// Session wires the client together for one local player.
type Session struct {
	cfg     *config.Config
	wallet  wallet.Wallet
	store   *store.Store
	queries ledger.QueryClient
	reader  ledger.ScoreReader
	guard   *txguard.Guard
	rec     *match.Reconciler
	bus     event.Bus
	sched   *scheduler.Scheduler
	sink    match.Sink
	dial    dialFunc

	// baseCtx outlives individual requests; the poller and relay read
	// loop run on it.
	baseCtx context.Context

	mu      sync.Mutex
	relay   *relay.Client
	poll    *poller.Poller
	matchID string
	closed  bool
}

// New assembles a Session from its capabilities.
func New(ctx context.Context, cfg *config.Config, w wallet.Wallet, st *store.Store,
	queries ledger.QueryClient, inv ledger.Invoker, reader ledger.ScoreReader, sink match.Sink) *Session {

	guard := txguard.New(inv, cfg.ContractID)
	rec := match.New(w.Address(), guard, reader, sink, true)

	bus := event.NewMemoryBus()
	rec.Attach(bus)

	s := &Session{
		cfg:     cfg,
		wallet:  w,
		store:   st,
		queries: queries,
		reader:  reader,
		guard:   guard,
		rec:     rec,
		bus:     bus,
		sched:   scheduler.New(),
		sink:    sink,
		dial:    relay.Dial,
		baseCtx: ctx,
	}

	bus.Subscribe(event.KindWin, s.onWin)
	return s
}

// Address returns the local player's address.
func (s *Session) Address() domain.Player {
	return s.wallet.Address()
}

// Play joins the matchmaking queue. Only one queue entry or match may be
// active at a time.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrMatchOver
	}
	if s.relay != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrActionInFlight, LogMsgRelayAlreadyActive)
	}
	s.mu.Unlock()

	client, err := s.dial(s.baseCtx, s.cfg.RelayURL, s)
	if err != nil {
		return err
	}

	if err := client.Join(ctx, relay.JoinRequest{
		Address:  s.wallet.Address(),
		Username: s.cfg.Username,
	}); err != nil {
		client.Close()
		return err
	}

	s.mu.Lock()
	s.relay = client
	s.mu.Unlock()

	logger.FromContext(ctx).Info(LogMsgJoinedQueue, "address", s.wallet.Address())
	s.sink.Notify("lobby", map[string]string{"status": LobbyStatusSearching})
	return nil
}

// CancelPlay leaves the matchmaking queue. The protocol has no cancel
// message; dropping the connection is the cancellation.
func (s *Session) CancelPlay(ctx context.Context) error {
	s.mu.Lock()
	client := s.relay
	s.relay = nil
	s.mu.Unlock()

	if client == nil {
		return domain.ErrNoMatch
	}

	logger.FromContext(ctx).Info(LogMsgQueueCancelled)
	s.sink.Notify("lobby", map[string]string{"status": LobbyStatusCancelled})
	return client.Close()
}

// State returns a snapshot of the active match.
func (s *Session) State() (domain.MatchState, error) {
	return s.rec.State()
}

// Roll submits the opening roll of the local turn.
func (s *Session) Roll(ctx context.Context) (domain.DieRoll, error) {
	return s.rec.RollDice(ctx)
}

// Hold sets dice aside and either re-rolls or stops.
func (s *Session) Hold(ctx context.Context, indices []int, stop bool) (domain.DieRoll, error) {
	return s.rec.HoldDice(ctx, indices, stop)
}

// Deposit moves amount into the player's game balance.
func (s *Session) Deposit(ctx context.Context, amount int64) error {
	if err := s.guard.Deposit(ctx, s.wallet.Address(), amount); err != nil {
		return err
	}
	s.sink.Notify("wallet", map[string]any{"action": "deposit", "amount": amount})
	return nil
}

// Withdraw returns the player's full game balance to their account.
func (s *Session) Withdraw(ctx context.Context) error {
	if err := s.guard.Withdraw(ctx, s.wallet.Address()); err != nil {
		return err
	}
	s.sink.Notify("wallet", map[string]any{"action": "withdraw"})
	return nil
}

// Balance reads the player's in-game balance.
func (s *Session) Balance(ctx context.Context) (int64, error) {
	return s.reader.ReadBalance(ctx, s.wallet.Address())
}

// History lists finished matches, most recent first.
func (s *Session) History(ctx context.Context, limit int) ([]store.MatchRecord, error) {
	return s.store.ListMatches(ctx, limit)
}

// Close tears the session down.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	client := s.relay
	s.relay = nil
	p := s.poll
	s.poll = nil
	s.mu.Unlock()

	// Stop outside s.mu. A tick holds the poller's mutex while publishing,
	// and onWin takes s.mu; stopping under s.mu inverts that order.
	if client != nil {
		client.Close()
	}
	if p != nil {
		p.Stop()
	}
	s.sched.Stop()

	logger.FromContext(s.baseCtx).Info(LogMsgSessionClosed)
}

// HandleAuthRequest signs the relay's auth entry with a validity horizon a
// little past the current ledger.
func (s *Session) HandleAuthRequest(ctx context.Context, req relay.AuthRequest) (relay.AuthResponse, error) {
	entry, err := base64.StdEncoding.DecodeString(req.Entry)
	if err != nil {
		return relay.AuthResponse{}, fmt.Errorf("%w: auth entry: %v", domain.ErrMalformedEvent, err)
	}

	passphrase := req.NetworkPassphrase
	if passphrase == "" {
		passphrase = s.cfg.NetworkPassphrase
	}
	lastValid := req.LatestLedger + AuthLedgerLookahead

	sig, err := s.wallet.SignAuthEntry(entry, wallet.AuthOpts{
		Address:           s.wallet.Address(),
		NetworkPassphrase: passphrase,
		LastValidLedger:   lastValid,
	})
	if err != nil {
		return relay.AuthResponse{}, err
	}

	return relay.AuthResponse{
		Address:         s.wallet.Address(),
		Signature:       sig,
		LastValidLedger: lastValid,
	}, nil
}

// HandleMatchStart begins the announced match and starts polling its
// events.
func (s *Session) HandleMatchStart(ctx context.Context, start relay.MatchStart) error {
	log := logger.FromContext(ctx)

	matchID, opponentStr, ok := strings.Cut(start.MatchID, MatchIDSeparator)
	if !ok || matchID == "" || opponentStr == "" {
		log.Error(LogMsgMalformedMatchID, "match_id", start.MatchID)
		return fmt.Errorf("%w: match announcement %q", domain.ErrMalformedEvent, start.MatchID)
	}
	opponent := domain.Player(opponentStr)

	s.rec.Begin(matchID, opponent)

	filter := ledger.EventFilter{
		ContractID: s.cfg.ContractID,
		Players:    []domain.Player{s.wallet.Address(), opponent},
	}

	// A poller runs one match and is done; each match gets a fresh one.
	p, err := poller.New(s.queries, filter, s.bus, s.sched, s.cfg.PollInterval)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.poll
	s.poll = p
	s.matchID = matchID
	s.mu.Unlock()

	// Same lock-order rule as Close: never hold s.mu while stopping a
	// poller whose tick may be publishing into onWin.
	if old != nil {
		old.Stop()
	}

	if err := p.Start(s.baseCtx); err != nil {
		log.Error(LogMsgPollerStartFailed, "error", err)
		return err
	}

	log.Info(LogMsgMatchEngaged, "match_id", matchID, "opponent", opponent)
	s.sink.Notify("lobby", map[string]string{
		"status":   LobbyStatusMatched,
		"match_id": matchID,
		"opponent": string(opponent),
	})
	return nil
}

// HandleMatchError surfaces a matchmaking failure and leaves the queue.
func (s *Session) HandleMatchError(ctx context.Context, relayErr relay.MatchError) {
	s.sink.Notify("lobby", map[string]string{
		"status":  LobbyStatusError,
		"message": relayErr.Message,
	})

	s.mu.Lock()
	client := s.relay
	s.relay = nil
	s.mu.Unlock()
	if client != nil {
		client.Close()
	}
}

// onWin records the finished match and winds the per-match machinery
// down.
func (s *Session) onWin(ctx context.Context, ev event.Event) error {
	win, ok := ev.(event.Win)
	if !ok {
		return nil
	}
	log := logger.FromContext(ctx)

	state, err := s.rec.State()
	if err != nil {
		return nil
	}

	s.mu.Lock()
	matchID := s.matchID
	p := s.poll
	s.poll = nil
	client := s.relay
	s.relay = nil
	s.mu.Unlock()

	if s.store != nil {
		rec := store.MatchRecord{
			MatchID:       matchID,
			Opponent:      state.Opponent,
			Winner:        win.Player,
			SelfScore:     state.TotalScore[state.Self],
			OpponentScore: state.TotalScore[state.Opponent],
			FinishedAt:    time.Now().UTC(),
		}
		if err := s.store.RecordMatch(ctx, rec); err != nil {
			log.Error(LogMsgMatchRecordFailed, "match_id", matchID, "error", err)
		} else {
			log.Info(LogMsgMatchRecorded, "match_id", matchID, "winner", win.Player)
		}
	}

	// This handler runs on the poller's own tick; stopping inline would
	// self-deadlock.
	if p != nil {
		go p.Stop()
	}
	if client != nil {
		client.Close()
	}
	return nil
}
