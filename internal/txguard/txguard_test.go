package txguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/ledger"
)

const (
	contractID = "CGAME"
	alice      = domain.Player("GALICE")
	bob        = domain.Player("GBOB")
)

// MockInvoker
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) SimulateRoll(ctx context.Context, player domain.Player, save []int, stop bool) (*ledger.AssembledTx, error) {
	args := m.Called(ctx, player, save, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AssembledTx), args.Error(1)
}

func (m *MockInvoker) SimulateDeposit(ctx context.Context, to domain.Player, amount int64) (*ledger.AssembledTx, error) {
	args := m.Called(ctx, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AssembledTx), args.Error(1)
}

func (m *MockInvoker) SimulateWithdraw(ctx context.Context, from domain.Player) (*ledger.AssembledTx, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AssembledTx), args.Error(1)
}

func (m *MockInvoker) Submit(ctx context.Context, tx *ledger.AssembledTx) (*ledger.TxResult, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TxResult), args.Error(1)
}

func simulatedRollTx() *ledger.AssembledTx {
	return &ledger.AssembledTx{
		Function: "roll",
		Footprint: ledger.Footprint{
			// Simulation already read the turn marker and dice; the
			// continue-branch keys overlap with these on purpose.
			ReadOnly: []ledger.Key{
				{Contract: contractID, Kind: "Turn", Address: alice},
				{Contract: contractID, Kind: "Match", Address: alice},
			},
			ReadWrite: []ledger.Key{
				{Contract: contractID, Kind: "Dice", Address: alice},
			},
			ReadBytes:   500,
			WriteBytes:  300,
			ResourceFee: 100_000,
		},
	}
}

func TestPadRollFootprintMergesWithoutDoubleListing(t *testing.T) {
	tx := simulatedRollTx()
	fp := &tx.Footprint

	require.NoError(t, PadRollFootprint(fp, contractID, alice, bob))

	// No key may appear in both sets after the merge.
	rw := make(map[ledger.Key]bool)
	for _, key := range fp.ReadWrite {
		assert.False(t, rw[key], "key %v listed twice in read-write", key)
		rw[key] = true
	}
	for _, key := range fp.ReadOnly {
		assert.False(t, rw[key], "key %v in both read-only and read-write", key)
	}

	// All four continue-branch keys are declared read-write.
	for _, key := range ContinueBranchKeys(contractID, alice, bob) {
		assert.True(t, rw[key], "missing continue-branch key %v", key)
	}

	assert.Equal(t, int64(100_000)+ReadFeeOffset, fp.ResourceFee)
	assert.Equal(t, int64(1500), fp.ReadBytes)
	assert.Equal(t, int64(1300), fp.WriteBytes)
}

func TestFeeOffsetMatchesKeySchema(t *testing.T) {
	keys := ContinueBranchKeys(contractID, alice, bob)

	// The offset budgets one padded read per continue-branch key plus one
	// entry of headroom. If the contract's key layout changes, update both
	// together.
	assert.Len(t, keys, paddedKeyReads-1)
	assert.Equal(t, int64(paddedKeyReads)*(readEntryFee+readByteFee), int64(ReadFeeOffset))
	assert.Equal(t, int64(40_180), int64(ReadFeeOffset))
}

func TestRollPadsOnlyWhenContinuing(t *testing.T) {
	inv := &MockInvoker{}
	guard := New(inv, contractID)

	stopTx := simulatedRollTx()
	wantFee := stopTx.Footprint.ResourceFee

	inv.On("SimulateRoll", mock.Anything, alice, []int{0, 1}, true).Return(stopTx, nil).Once()
	inv.On("Submit", mock.Anything, mock.MatchedBy(func(tx *ledger.AssembledTx) bool {
		// Stop rolls keep their exact simulated footprint.
		return tx.Footprint.ResourceFee == wantFee
	})).Return(&ledger.TxResult{Status: ledger.TxStatusSuccess, ReturnValue: []any{}}, nil).Once()

	dice, err := guard.Roll(context.Background(), alice, bob, []int{0, 1}, true)
	require.NoError(t, err)
	assert.Empty(t, dice)

	continueTx := simulatedRollTx()
	inv.On("SimulateRoll", mock.Anything, alice, []int(nil), false).Return(continueTx, nil).Once()
	inv.On("Submit", mock.Anything, mock.MatchedBy(func(tx *ledger.AssembledTx) bool {
		return tx.Footprint.ResourceFee == wantFee+ReadFeeOffset
	})).Return(&ledger.TxResult{Status: ledger.TxStatusSuccess, ReturnValue: []any{3, 3, 3, 1, 5, 2}}, nil).Once()

	dice, err = guard.Roll(context.Background(), alice, bob, nil, false)
	require.NoError(t, err)
	assert.Equal(t, domain.DieRoll{3, 3, 3, 1, 5, 2}, dice)

	inv.AssertExpectations(t)
}

func TestRollClassifiesExecutionFailure(t *testing.T) {
	inv := &MockInvoker{}
	guard := New(inv, contractID)

	inv.On("SimulateRoll", mock.Anything, alice, []int(nil), false).Return(simulatedRollTx(), nil).Once()
	inv.On("Submit", mock.Anything, mock.Anything).Return(&ledger.TxResult{
		Status:      ledger.TxStatusFailed,
		Diagnostics: []string{"Error(Contract, #5)"},
	}, nil).Once()

	_, err := guard.Roll(context.Background(), alice, bob, nil, false)
	assert.ErrorIs(t, err, domain.ErrExecutionFailed)
	assert.Contains(t, err.Error(), "Error(Contract, #5)")
}

func TestRollClassifiesIndeterminate(t *testing.T) {
	inv := &MockInvoker{}
	guard := New(inv, contractID)

	inv.On("SimulateRoll", mock.Anything, alice, []int(nil), false).Return(simulatedRollTx(), nil).Once()
	inv.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	_, err := guard.Roll(context.Background(), alice, bob, nil, false)
	assert.ErrorIs(t, err, domain.ErrNetworkTransient)
}

func TestRollClassifiesSimulationRejection(t *testing.T) {
	inv := &MockInvoker{}
	guard := New(inv, contractID)

	inv.On("SimulateRoll", mock.Anything, alice, []int(nil), false).
		Return(nil, errors.New("NotYourTurn")).Once()

	_, err := guard.Roll(context.Background(), alice, bob, nil, false)
	assert.ErrorIs(t, err, domain.ErrSubmissionRejected)
	inv.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestDepositAndWithdraw(t *testing.T) {
	inv := &MockInvoker{}
	guard := New(inv, contractID)

	inv.On("SimulateDeposit", mock.Anything, alice, 10*domain.OneLumen).
		Return(&ledger.AssembledTx{Function: "deposit"}, nil).Once()
	inv.On("SimulateWithdraw", mock.Anything, alice).
		Return(&ledger.AssembledTx{Function: "withdraw"}, nil).Once()
	inv.On("Submit", mock.Anything, mock.Anything).
		Return(&ledger.TxResult{Status: ledger.TxStatusSuccess}, nil).Twice()

	assert.NoError(t, guard.Deposit(context.Background(), alice, 10*domain.OneLumen))
	assert.NoError(t, guard.Withdraw(context.Background(), alice))
	inv.AssertExpectations(t)
}
