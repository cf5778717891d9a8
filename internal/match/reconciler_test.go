package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/event"
)

const (
	self     = domain.Player("GSELF")
	opponent = domain.Player("GRIVAL")
	matchID  = "m-42"
)

// MockActor
type MockActor struct {
	mock.Mock
}

func (m *MockActor) Roll(ctx context.Context, player, opp domain.Player, save []int, stop bool) (domain.DieRoll, error) {
	args := m.Called(ctx, player, opp, save, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.DieRoll), args.Error(1)
}

// MockScoreReader
type MockScoreReader struct {
	mock.Mock
}

func (m *MockScoreReader) ReadScore(ctx context.Context, player domain.Player) (int, error) {
	args := m.Called(ctx, player)
	return args.Int(0), args.Error(1)
}

func (m *MockScoreReader) ReadBalance(ctx context.Context, player domain.Player) (int64, error) {
	args := m.Called(ctx, player)
	return args.Get(0).(int64), args.Error(1)
}

// recordingSink collects notifications.
type recordingSink struct {
	mu    sync.Mutex
	kinds []string
}

func (s *recordingSink) Notify(kind string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
}

func (s *recordingSink) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.kinds...)
}

func newTestReconciler(actor *MockActor, reader *MockScoreReader) (*Reconciler, *recordingSink) {
	// Bank events fire an async read-back; unless a test stubs a real
	// value the read fails and the local tally stands.
	reader.On("ReadScore", mock.Anything, mock.Anything).
		Return(0, errors.New("read-back unavailable")).Maybe()

	sink := &recordingSink{}
	r := New(self, actor, reader, sink, false)
	r.Begin(matchID, opponent)
	return r, sink
}

func handle(t *testing.T, r *Reconciler, ev event.Event) {
	t.Helper()
	require.NoError(t, r.Handle(context.Background(), ev))
}

func TestMatchStartedSetsFirstTurn(t *testing.T) {
	r, sink := newTestReconciler(&MockActor{}, &MockScoreReader{})

	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	state, err := r.State()
	require.NoError(t, err)
	assert.Equal(t, self, state.CurrentTurn)
	assert.Equal(t, domain.PhaseRollPending, state.Phase)
	assert.Equal(t, []string{"match"}, sink.seen())
}

func TestMatchStartedIgnoresForeignMatch(t *testing.T) {
	r, sink := newTestReconciler(&MockActor{}, &MockScoreReader{})

	handle(t, r, event.MatchStarted{Player: "GX", OtherPlayer: "GY", First: "GX"})

	state, err := r.State()
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseWaitingForOpponent, state.Phase)
	assert.Empty(t, sink.seen())
}

func TestRollThenHoldAndBank(t *testing.T) {
	actor := &MockActor{}
	reader := &MockScoreReader{}
	r, _ := newTestReconciler(actor, reader)

	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Return(domain.DieRoll{3, 3, 3, 1, 5, 2}, nil).Once()

	dice, err := r.RollDice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DieRoll{3, 3, 3, 1, 5, 2}, dice)

	state, _ := r.State()
	assert.Equal(t, domain.PhaseChoosingHold, state.Phase)

	// Hold the triple 3s plus the 1 and the 5, stop and bank.
	actor.On("Roll", mock.Anything, self, opponent, []int{0, 1, 2, 3, 4}, true).
		Return(domain.DieRoll{}, nil).Once()

	_, err = r.HoldDice(context.Background(), []int{0, 1, 2, 3, 4}, true)
	require.NoError(t, err)

	state, _ = r.State()
	assert.Equal(t, domain.PhaseWaitingForOpponent, state.Phase)
	assert.Equal(t, opponent, state.CurrentTurn)

	// The settled hold arrives through the stream and banks the score.
	handle(t, r, event.Hold{Player: self, Dice: domain.DieRoll{3, 3, 3, 1, 5}, Score: 450, Stop: true})

	state, _ = r.State()
	assert.Equal(t, 450, state.TotalScore[self])
	assert.Equal(t, 0, state.TurnScore[self])
	actor.AssertExpectations(t)
}

func TestHoldWithoutStopAccumulatesTurnScore(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	handle(t, r, event.Hold{Player: self, Dice: domain.DieRoll{1}, Score: 100, Stop: false})
	handle(t, r, event.Hold{Player: self, Dice: domain.DieRoll{5}, Score: 50, Stop: false})

	state, _ := r.State()
	assert.Equal(t, 150, state.TurnScore[self])
	assert.Equal(t, 0, state.TotalScore[self])
	assert.Equal(t, self, state.CurrentTurn)
}

func TestOpponentStopHandsTurnOver(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})

	handle(t, r, event.Hold{Player: opponent, Dice: domain.DieRoll{1, 5}, Score: 150, Stop: true})

	state, _ := r.State()
	assert.Equal(t, 150, state.TotalScore[opponent])
	assert.Equal(t, self, state.CurrentTurn)
	assert.Equal(t, domain.PhaseRollPending, state.Phase)
}

func TestHandoffRollChangesTurnOnly(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})
	handle(t, r, event.Hold{Player: opponent, Dice: domain.DieRoll{1}, Score: 100, Stop: false})

	before, _ := r.State()

	// Empty dice: the named player's turn begins, nothing else moves.
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{}})

	state, _ := r.State()
	assert.Equal(t, self, state.CurrentTurn)
	assert.Equal(t, domain.PhaseRollPending, state.Phase)
	assert.Equal(t, before.TurnScore, state.TurnScore)
	assert.Equal(t, before.TotalScore, state.TotalScore)
}

func TestOpponentBustOpensLocalTurn(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})
	handle(t, r, event.Hold{Player: opponent, Dice: domain.DieRoll{1}, Score: 100, Stop: false})

	handle(t, r, event.Bust{Player: opponent, Dice: domain.DieRoll{2, 3, 4, 6}})

	state, _ := r.State()
	assert.Equal(t, 0, state.TurnScore[opponent], "busting forfeits the unbanked turn score")
	assert.Equal(t, self, state.CurrentTurn)
	assert.Equal(t, domain.PhaseRollPending, state.Phase)
}

func TestLocalBust(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{2, 3, 4, 6, 6, 2}})

	handle(t, r, event.Bust{Player: self, Dice: domain.DieRoll{2, 3, 4, 6, 6, 2}})

	state, _ := r.State()
	assert.Equal(t, domain.PhaseBusted, state.Phase)
	assert.Equal(t, opponent, state.CurrentTurn)
	assert.Empty(t, state.LastRoll)
}

func TestWinAndLoss(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})
	handle(t, r, event.Win{Player: self, Score: 2150})

	state, _ := r.State()
	assert.Equal(t, domain.PhaseWon, state.Phase)
	assert.Equal(t, 2150, state.TotalScore[self])

	// Terminal state rejects further events and actions.
	handle(t, r, event.Roll{Player: opponent, Dice: domain.DieRoll{1, 5}})
	_, err := r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrMatchOver)

	r2, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r2, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})
	handle(t, r2, event.Win{Player: opponent, Score: 2000})

	state, _ = r2.State()
	assert.Equal(t, domain.PhaseLost, state.Phase)
}

func TestRollDiceGuards(t *testing.T) {
	actor := &MockActor{}
	r, _ := newTestReconciler(actor, &MockScoreReader{})

	// Opponent's turn.
	handle(t, r, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})
	_, err := r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)

	// Our turn but dice already on the table.
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{}})
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{1, 5}})
	_, err = r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrWrongPhase)

	actor.AssertNotCalled(t, "Roll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNoMatch(t *testing.T) {
	r := New(self, &MockActor{}, &MockScoreReader{}, nil, false)

	_, err := r.State()
	assert.ErrorIs(t, err, domain.ErrNoMatch)
	_, err = r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoMatch)

	// Non-match events without state are dropped quietly.
	assert.NoError(t, r.Handle(context.Background(), event.Roll{Player: self, Dice: domain.DieRoll{1}}))
}

func TestHoldValidation(t *testing.T) {
	actor := &MockActor{}
	r, _ := newTestReconciler(actor, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{2, 3, 4, 6, 1, 5}})

	// A re-roll must hold something.
	_, err := r.HoldDice(context.Background(), nil, false)
	assert.ErrorIs(t, err, domain.ErrEmptyHold)

	// Held dice must score.
	_, err = r.HoldDice(context.Background(), []int{0, 1}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidHoldSelection)

	// Indices must address the roll.
	_, err = r.HoldDice(context.Background(), []int{6}, true)
	assert.ErrorIs(t, err, domain.ErrBadDieIndex)

	actor.AssertNotCalled(t, "Roll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Stopping with nothing held passes the turn outright.
	actor.On("Roll", mock.Anything, self, opponent, []int(nil), true).
		Return(domain.DieRoll{}, nil).Once()

	_, err = r.HoldDice(context.Background(), nil, true)
	require.NoError(t, err)
	state, _ := r.State()
	assert.Equal(t, opponent, state.CurrentTurn)
}

func TestOneActionInFlight(t *testing.T) {
	actor := &MockActor{}
	r, _ := newTestReconciler(actor, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	release := make(chan struct{})
	entered := make(chan struct{})
	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(domain.DieRoll{1, 5}, nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := r.RollDice(context.Background())
		assert.NoError(t, err)
	}()

	<-entered
	_, err := r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrActionInFlight)

	close(release)
	<-done
}

func TestStreamEventOutranksStaleSettlement(t *testing.T) {
	actor := &MockActor{}
	r, _ := newTestReconciler(actor, &MockScoreReader{})

	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})
	handle(t, r, event.Roll{Player: self, Dice: domain.DieRoll{3, 3, 3, 1, 5, 2}})

	release := make(chan struct{})
	entered := make(chan struct{})
	actor.On("Roll", mock.Anything, self, opponent, []int{3}, false).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(domain.DieRoll{2, 3, 4, 6, 2}, nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := r.HoldDice(context.Background(), []int{3}, false)
		assert.NoError(t, err)
	}()
	<-entered

	// The re-roll busted on chain; its event outruns the submission
	// response still in transit.
	handle(t, r, event.Bust{Player: self, Dice: domain.DieRoll{2, 3, 4, 6, 2}})

	close(release)
	<-done

	// The settlement's optimistic write is stale and must not clobber the
	// bust.
	state, _ := r.State()
	assert.Equal(t, domain.PhaseBusted, state.Phase)
	assert.Nil(t, state.LastRoll)
	assert.Equal(t, 0, state.TurnScore[self])
	assert.Equal(t, opponent, state.CurrentTurn)
}

func TestActionFailureClearsInFlight(t *testing.T) {
	actor := &MockActor{}
	r, _ := newTestReconciler(actor, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Return(nil, domain.ErrExecutionFailed).Once()
	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Return(domain.DieRoll{1, 5}, nil).Once()

	_, err := r.RollDice(context.Background())
	assert.ErrorIs(t, err, domain.ErrExecutionFailed)

	// The failed action settled; a retry is allowed.
	_, err = r.RollDice(context.Background())
	assert.NoError(t, err)
}

func TestConfirmedScoreGenerationPrecedence(t *testing.T) {
	r, _ := newTestReconciler(&MockActor{}, &MockScoreReader{})
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})
	handle(t, r, event.Hold{Player: self, Dice: domain.DieRoll{1, 5}, Score: 150, Stop: true})

	state, _ := r.State()
	gen := state.Generation

	// Read-back issued before the latest mutation is discarded.
	assert.False(t, r.applyConfirmedScore(context.Background(), self, 999, gen-1))
	state, _ = r.State()
	assert.Equal(t, 150, state.TotalScore[self])

	// Read-back against the current generation corrects the total.
	assert.True(t, r.applyConfirmedScore(context.Background(), self, 200, gen))
	state, _ = r.State()
	assert.Equal(t, 200, state.TotalScore[self])

	// Matching totals are a no-op.
	state, _ = r.State()
	assert.False(t, r.applyConfirmedScore(context.Background(), self, 200, state.Generation))
}

func TestAutoRollOnTurnOpen(t *testing.T) {
	actor := &MockActor{}
	sink := &recordingSink{}
	r := New(self, actor, &MockScoreReader{}, sink, true)
	r.Begin(matchID, opponent)

	rolled := make(chan struct{})
	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Run(func(args mock.Arguments) { close(rolled) }).
		Return(domain.DieRoll{3, 3, 3, 1, 5, 2}, nil).Once()

	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	select {
	case <-rolled:
	case <-time.After(2 * time.Second):
		t.Fatal("opening roll was never submitted")
	}
	actor.AssertExpectations(t)
}

func TestAutoRollStopsWhenStateMovesOn(t *testing.T) {
	actor := &MockActor{}
	r := New(self, actor, &MockScoreReader{}, nil, true)
	r.Begin(matchID, opponent)
	handle(t, r, event.MatchStarted{Player: opponent, OtherPlayer: self, First: opponent})

	// Simulates a turn that closed before the loop could act.
	r.autoRollLoop(context.Background())
	actor.AssertNotCalled(t, "Roll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAutoRollRetriesTransientFailure(t *testing.T) {
	actor := &MockActor{}
	r := New(self, actor, &MockScoreReader{}, nil, false)
	r.retryDelay = time.Millisecond
	r.Begin(matchID, opponent)
	handle(t, r, event.MatchStarted{Player: self, OtherPlayer: opponent, First: self})

	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Return(nil, errors.New("transient")).Once()
	actor.On("Roll", mock.Anything, self, opponent, []int(nil), false).
		Return(domain.DieRoll{1, 5}, nil).Once()

	r.autoRollLoop(context.Background())
	actor.AssertExpectations(t)
}
