// Package txguard submits simulated contract invocations and classifies
// their settled outcomes.
//
// The roll invocation needs special care: simulation executes one branch of
// the contract's RNG, but the real execution may take the other. A roll
// simulated as "continue" can settle as a bust and vice versa, touching
// ledger keys the simulated footprint never declared and reverting with a
// footprint mismatch. For a non-stopping roll the guard therefore widens
// the declared footprint to cover the continue branch before submission.
package txguard

import (
	"context"
	"fmt"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/ledger"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/metrics"
)

// Outcome classifies a settled submission.
type Outcome string

// Outcomes
const (
	// OutcomeSuccess means the transaction executed and returned a value.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailed means the transaction reached the ledger and reverted.
	OutcomeFailed Outcome = "failed"

	// OutcomeIndeterminate means a network or signing error prevented
	// execution; the ledger never saw the transaction.
	OutcomeIndeterminate Outcome = "indeterminate"
)

// Result is the classified outcome of one submission.
type Result struct {
	Outcome     Outcome
	Value       any
	Diagnostics []string
}

// Guard wraps the invocation capability with footprint padding and outcome
// classification.
type Guard struct {
	inv        ledger.Invoker
	contractID string
}

// New creates a Guard for the given contract.
func New(inv ledger.Invoker, contractID string) *Guard {
	return &Guard{inv: inv, contractID: contractID}
}

// Roll simulates and submits a roll action. For a non-stopping roll the
// footprint is padded for the continue branch; a stopping roll's simulated
// footprint is exact and submitted as-is.
func (g *Guard) Roll(ctx context.Context, player, opponent domain.Player, save []int, stop bool) (domain.DieRoll, error) {
	tx, err := g.inv.SimulateRoll(ctx, player, save, stop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionRejected, err)
	}

	if !stop {
		if err := PadRollFootprint(&tx.Footprint, g.contractID, player, opponent); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionRejected, err)
		}
	}

	res, err := g.execute(ctx, tx)
	if err != nil {
		return nil, err
	}

	dice, err := ledger.NativeDice(res.Value)
	if err != nil {
		return nil, err
	}
	return dice, nil
}

// Deposit moves amount (smallest units) into the player's game balance.
func (g *Guard) Deposit(ctx context.Context, to domain.Player, amount int64) error {
	tx, err := g.inv.SimulateDeposit(ctx, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionRejected, err)
	}
	_, err = g.execute(ctx, tx)
	return err
}

// Withdraw returns the player's full game balance to their account.
func (g *Guard) Withdraw(ctx context.Context, from domain.Player) error {
	tx, err := g.inv.SimulateWithdraw(ctx, from)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionRejected, err)
	}
	_, err = g.execute(ctx, tx)
	return err
}

// execute submits tx and classifies the settlement.
func (g *Guard) execute(ctx context.Context, tx *ledger.AssembledTx) (*Result, error) {
	log := logger.FromContext(ctx)

	res, err := g.inv.Submit(ctx, tx)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(tx.Function, string(OutcomeIndeterminate)).Inc()
		log.Warn(LogMsgSubmitIndeterminate, "function", tx.Function, "error", err)
		return &Result{Outcome: OutcomeIndeterminate}, fmt.Errorf("%w: %v", domain.ErrNetworkTransient, err)
	}

	switch res.Status {
	case ledger.TxStatusSuccess:
		metrics.SubmissionsTotal.WithLabelValues(tx.Function, string(OutcomeSuccess)).Inc()
		return &Result{Outcome: OutcomeSuccess, Value: res.ReturnValue}, nil

	case ledger.TxStatusFailed:
		metrics.SubmissionsTotal.WithLabelValues(tx.Function, string(OutcomeFailed)).Inc()
		for i, diag := range res.Diagnostics {
			log.Error(LogMsgDiagnosticEvent, "function", tx.Function, "index", i, "event", diag)
		}
		return &Result{Outcome: OutcomeFailed, Diagnostics: res.Diagnostics},
			fmt.Errorf("%w: %s", domain.ErrExecutionFailed, firstDiagnostic(res.Diagnostics))

	default:
		metrics.SubmissionsTotal.WithLabelValues(tx.Function, string(OutcomeIndeterminate)).Inc()
		return &Result{Outcome: OutcomeIndeterminate},
			fmt.Errorf("%w: unexpected status %q", domain.ErrNetworkTransient, res.Status)
	}
}

func firstDiagnostic(diags []string) string {
	if len(diags) == 0 {
		return "no diagnostics"
	}
	return diags[0]
}
