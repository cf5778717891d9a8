// Package match reconciles the local view of one Farkle match against the
// contract's event stream.
//
// The reconciler owns the match state exclusively. Decoded ledger events
// are the only source of score mutations; locally issued actions adjust
// phase optimistically but never touch a score, so a re-delivered or
// out-of-band event can never double-count. Authoritative score read-backs
// are reconciled through a generation counter: a read-back issued against
// one generation is discarded if events moved the state on before it
// returned.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/event"
	"github.com/farklezone/farkle-client/internal/ledger"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/scoring"
)

// Actor submits roll actions to the contract on the local player's behalf.
type Actor interface {
	// Roll plays one contract roll action: hold the dice at the save
	// indices, then either re-roll the rest or stop and bank. The returned
	// dice are the fresh roll; a stopping call returns none.
	Roll(ctx context.Context, player, opponent domain.Player, save []int, stop bool) (domain.DieRoll, error)
}

// Sink receives notifications whenever an applied event changes the match
// state.
type Sink interface {
	Notify(kind string, payload any)
}

// Update pairs an applied event with the state that resulted from it.
type Update struct {
	Event event.Event       `json:"event"`
	State domain.MatchState `json:"state"`
}

// Reconciler folds the event stream and local action settlements into one
// consistent match state.
type Reconciler struct {
	self       domain.Player
	actor      Actor
	reader     ledger.ScoreReader
	sink       Sink
	autoRoll   bool
	retryDelay time.Duration

	mu       sync.Mutex
	state    *domain.MatchState
	inFlight bool
}

// New creates a Reconciler for the local player. When autoRoll is set the
// reconciler submits the opening roll of every local turn itself.
func New(self domain.Player, actor Actor, reader ledger.ScoreReader, sink Sink, autoRoll bool) *Reconciler {
	return &Reconciler{
		self:       self,
		actor:      actor,
		reader:     reader,
		sink:       sink,
		autoRoll:   autoRoll,
		retryDelay: AutoRollRetryDelay,
	}
}

// Attach subscribes the reconciler to every game event on bus.
func (r *Reconciler) Attach(bus event.Bus) {
	bus.SubscribeAll(r.Handle)
}

// Begin seeds state for a freshly paired match before its events arrive.
// Any previous match state is discarded.
func (r *Reconciler) Begin(matchID string, opponent domain.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = domain.NewMatchState(matchID, r.self, opponent)
}

// State returns a snapshot of the current match state.
func (r *Reconciler) State() (domain.MatchState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return domain.MatchState{}, domain.ErrNoMatch
	}
	return r.state.Snapshot(), nil
}

// RollDice submits the opening roll of the local player's turn.
func (r *Reconciler) RollDice(ctx context.Context) (domain.DieRoll, error) {
	opponent, gen, err := r.claimAction(domain.PhaseRollPending)
	if err != nil {
		return nil, err
	}

	dice, err := r.actor.Roll(ctx, r.self, opponent, nil, false)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		return nil, err
	}

	// The roll event will arrive through the stream as well; setting the
	// same dice twice is harmless. If the score state moved on while the
	// submission was in transit, the stream already owns the truth and the
	// optimistic write is stale.
	if r.state != nil && !r.state.Phase.Terminal() && r.state.Generation == gen {
		r.state.LastRoll = dice
		r.state.Phase = domain.PhaseChoosingHold
	}
	return dice, nil
}

// HoldDice sets the dice at the given roll indices aside, then either
// re-rolls the remainder or stops and banks the turn score. A stop with no
// held dice passes the turn outright; a re-roll must hold at least one
// scoring die.
func (r *Reconciler) HoldDice(ctx context.Context, indices []int, stop bool) (domain.DieRoll, error) {
	opponent, gen, err := r.claimHold(indices, stop)
	if err != nil {
		return nil, err
	}

	dice, err := r.actor.Roll(ctx, r.self, opponent, indices, stop)

	r.mu.Lock()
	r.inFlight = false
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	// Same staleness rule as RollDice: an event applied while the
	// submission response was in transit wins over the optimistic write.
	if r.state != nil && !r.state.Phase.Terminal() && r.state.Generation == gen {
		if stop {
			r.state.LastRoll = nil
			r.state.CurrentTurn = opponent
			r.state.Phase = domain.PhaseWaitingForOpponent
		} else {
			r.state.LastRoll = dice
			r.state.Phase = domain.PhaseChoosingHold
		}
	}
	r.mu.Unlock()

	return dice, nil
}

// claimAction validates that a local action is currently legal and marks
// one in flight. Returns the opponent for the submission and the score
// generation the claim was made against.
func (r *Reconciler) claimAction(want domain.Phase) (domain.Player, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.state == nil:
		return "", 0, domain.ErrNoMatch
	case r.state.Phase.Terminal():
		return "", 0, domain.ErrMatchOver
	case r.state.CurrentTurn != r.self:
		return "", 0, domain.ErrNotYourTurn
	case r.state.Phase != want:
		return "", 0, fmt.Errorf("%w: %s", domain.ErrWrongPhase, r.state.Phase)
	case r.inFlight:
		return "", 0, domain.ErrActionInFlight
	}

	r.inFlight = true
	return r.state.Opponent, r.state.Generation, nil
}

// claimHold is claimAction plus hold-selection validation against the
// pending roll.
func (r *Reconciler) claimHold(indices []int, stop bool) (domain.Player, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.state == nil:
		return "", 0, domain.ErrNoMatch
	case r.state.Phase.Terminal():
		return "", 0, domain.ErrMatchOver
	case r.state.CurrentTurn != r.self:
		return "", 0, domain.ErrNotYourTurn
	case r.state.Phase != domain.PhaseChoosingHold:
		return "", 0, fmt.Errorf("%w: %s", domain.ErrWrongPhase, r.state.Phase)
	case r.inFlight:
		return "", 0, domain.ErrActionInFlight
	}

	if !stop && len(indices) == 0 {
		return "", 0, domain.ErrEmptyHold
	}

	held, err := scoring.Select(r.state.LastRoll, indices)
	if err != nil {
		return "", 0, err
	}
	if len(held) > 0 && scoring.Score(held) == 0 {
		return "", 0, fmt.Errorf("%w: held %s", domain.ErrInvalidHoldSelection, scoring.DiceWords(held))
	}

	r.inFlight = true
	return r.state.Opponent, r.state.Generation, nil
}

// Handle applies one decoded event to the match state.
func (r *Reconciler) Handle(ctx context.Context, ev event.Event) error {
	r.mu.Lock()
	outcome := r.apply(ctx, ev)
	var snap domain.MatchState
	if outcome.applied {
		snap = r.state.Snapshot()
	}
	r.mu.Unlock()

	if !outcome.applied {
		return nil
	}

	if r.sink != nil {
		r.sink.Notify(string(ev.Kind()), Update{Event: ev, State: snap})
	}
	if outcome.banked != "" {
		// The ledger already holds the banked total; confirm the local
		// tally against it. Issued after the bank event applied, so a
		// matching read is a no-op rather than a double count.
		go r.confirmScore(context.WithoutCancel(ctx), outcome.banked)
	}
	if outcome.turnOpened {
		logger.FromContext(ctx).Info(LogMsgTurnOpened, "match_id", snap.MatchID)
		if r.autoRoll {
			go r.autoRollLoop(context.WithoutCancel(ctx))
		}
	}
	return nil
}

// applyOutcome reports what an applied event did: whether it mutated
// state, opened a turn for the local player, or banked a turn score.
type applyOutcome struct {
	applied    bool
	turnOpened bool
	banked     domain.Player
}

// apply mutates state under the caller-held lock.
func (r *Reconciler) apply(ctx context.Context, ev event.Event) applyOutcome {
	log := logger.FromContext(ctx)

	if started, ok := ev.(event.MatchStarted); ok {
		applied, turnOpened := r.applyMatchStarted(ctx, started)
		return applyOutcome{applied: applied, turnOpened: turnOpened}
	}

	if r.state == nil {
		log.Debug(LogMsgEventIgnoredNoGame, "kind", ev.Kind(), "player", ev.Subject())
		return applyOutcome{}
	}
	if r.state.Phase.Terminal() {
		return applyOutcome{}
	}

	switch e := ev.(type) {
	case event.Roll:
		return applyOutcome{applied: true, turnOpened: r.applyRoll(e)}
	case event.Hold:
		out := applyOutcome{applied: true, turnOpened: r.applyHold(e)}
		if e.Stop {
			out.banked = e.Player
		}
		return out
	case event.Bust:
		return applyOutcome{applied: true, turnOpened: r.applyBust(e)}
	case event.Win:
		r.applyWin(e)
		return applyOutcome{applied: true}
	default:
		return applyOutcome{}
	}
}

func (r *Reconciler) applyMatchStarted(ctx context.Context, e event.MatchStarted) (applied, turnOpened bool) {
	log := logger.FromContext(ctx)

	if e.Player != r.self && e.OtherPlayer != r.self {
		log.Debug(LogMsgNotAParticipant, "player", e.Player, "other_player", e.OtherPlayer)
		return false, false
	}

	if r.state == nil {
		opponent := e.Player
		if opponent == r.self {
			opponent = e.OtherPlayer
		}
		r.state = domain.NewMatchState("", r.self, opponent)
	}

	r.state.CurrentTurn = e.First
	if e.First == r.self {
		r.state.Phase = domain.PhaseRollPending
	} else {
		r.state.Phase = domain.PhaseWaitingForOpponent
	}

	log.Info(LogMsgMatchStarted, "opponent", r.state.Opponent, "first", e.First)
	return true, e.First == r.self
}

func (r *Reconciler) applyRoll(e event.Roll) (turnOpened bool) {
	r.state.CurrentTurn = e.Player

	if e.Handoff() {
		// Pure handoff: the named player's turn begins, no score changes.
		r.state.LastRoll = nil
		if e.Player == r.self {
			r.state.Phase = domain.PhaseRollPending
			return true
		}
		r.state.Phase = domain.PhaseWaitingForOpponent
		return false
	}

	if e.Player == r.self {
		r.state.LastRoll = e.Dice
		r.state.Phase = domain.PhaseChoosingHold
	} else {
		r.state.Phase = domain.PhaseWaitingForOpponent
	}
	return false
}

func (r *Reconciler) applyHold(e event.Hold) (turnOpened bool) {
	r.state.TurnScore[e.Player] += e.Score
	r.state.Generation++

	if !e.Stop {
		return false
	}

	r.state.TotalScore[e.Player] += r.state.TurnScore[e.Player]
	r.state.TurnScore[e.Player] = 0

	next := r.state.Other(e.Player)
	r.state.CurrentTurn = next
	if e.Player == r.self {
		r.state.LastRoll = nil
	}
	if next == r.self {
		r.state.Phase = domain.PhaseRollPending
		return true
	}
	r.state.Phase = domain.PhaseWaitingForOpponent
	return false
}

func (r *Reconciler) applyBust(e event.Bust) (turnOpened bool) {
	r.state.TurnScore[e.Player] = 0
	r.state.Generation++
	r.state.CurrentTurn = r.state.Other(e.Player)

	if e.Player == r.self {
		r.state.LastRoll = nil
		r.state.Phase = domain.PhaseBusted
		return false
	}
	r.state.Phase = domain.PhaseRollPending
	return true
}

func (r *Reconciler) applyWin(e event.Win) {
	r.state.TotalScore[e.Player] = e.Score
	r.state.TurnScore[r.state.Self] = 0
	r.state.TurnScore[r.state.Opponent] = 0
	r.state.Generation++
	r.state.LastRoll = nil
	r.state.CurrentTurn = ""

	if e.Player == r.self {
		r.state.Phase = domain.PhaseWon
	} else {
		r.state.Phase = domain.PhaseLost
	}
}

// autoRollLoop submits the opening roll of a local turn, retrying through
// transient failures. It stops quietly once the state says the roll is no
// longer wanted.
func (r *Reconciler) autoRollLoop(ctx context.Context) {
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= AutoRollMaxAttempts; attempt++ {
		_, err := r.RollDice(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrNoMatch) || errors.Is(err, domain.ErrMatchOver) ||
			errors.Is(err, domain.ErrNotYourTurn) || errors.Is(err, domain.ErrWrongPhase) {
			return
		}

		log.Warn(LogMsgAutoRollRetry, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryDelay):
		}
	}

	log.Error(LogMsgAutoRollGaveUp, "attempts", AutoRollMaxAttempts)
}

// confirmScore reads the local player's authoritative banked total and
// reconciles it against the state the read was issued under.
func (r *Reconciler) confirmScore(ctx context.Context, player domain.Player) {
	log := logger.FromContext(ctx)

	r.mu.Lock()
	if r.state == nil {
		r.mu.Unlock()
		return
	}
	gen := r.state.Generation
	r.mu.Unlock()

	score, err := r.reader.ReadScore(ctx, player)
	if err != nil {
		log.Warn(LogMsgReadBackFailed, "player", player, "error", err)
		return
	}

	if r.applyConfirmedScore(ctx, player, score, gen) {
		log.Info(LogMsgReadBackApplied, "player", player, "score", score)
	}
}

// applyConfirmedScore applies an authoritative banked total if no score
// mutation happened since generation gen. Returns true when the local
// total actually changed.
func (r *Reconciler) applyConfirmedScore(ctx context.Context, player domain.Player, score int, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil || r.state.Generation != gen {
		logger.FromContext(ctx).Debug(LogMsgReadBackStale, "player", player, "score", score)
		return false
	}
	if r.state.TotalScore[player] == score {
		return false
	}

	r.state.TotalScore[player] = score
	r.state.Generation++
	return true
}
