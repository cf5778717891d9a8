package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/store"
)

// GameSession is the session surface the UI bridge exposes.
type GameSession interface {
	Address() domain.Player
	Play(ctx context.Context) error
	CancelPlay(ctx context.Context) error
	State() (domain.MatchState, error)
	Roll(ctx context.Context) (domain.DieRoll, error)
	Hold(ctx context.Context, indices []int, stop bool) (domain.DieRoll, error)
	Deposit(ctx context.Context, amount int64) error
	Withdraw(ctx context.Context) error
	Balance(ctx context.Context) (int64, error)
	History(ctx context.Context, limit int) ([]store.MatchRecord, error)
}

// HoldRequest is the body of POST /api/v1/hold.
type HoldRequest struct {
	Indices []int `json:"indices" validate:"max=6,dive,gte=0,lte=5"`
	Stop    bool  `json:"stop"`
}

// DepositRequest is the body of POST /api/v1/deposit.
type DepositRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// historyQuery holds the parsed history listing parameters.
type historyQuery struct {
	Limit int `validate:"min=1,max=100"`
}

// RollResponse carries the fresh dice of a settled roll or re-roll.
type RollResponse struct {
	Dice domain.DieRoll `json:"dice"`
}

// StateResponse wraps the match snapshot with the local identity and the
// contract's fixed game parameters.
type StateResponse struct {
	Address      domain.Player      `json:"address"`
	WinningScore int                `json:"winning_score"`
	CostToPlay   int64              `json:"cost_to_play"`
	Match        *domain.MatchState `json:"match,omitempty"`
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleGetState returns the local identity and active match snapshot.
func HandleGetState(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StateResponse{
			Address:      session.Address(),
			WinningScore: domain.WinningScore,
			CostToPlay:   domain.CostToPlay,
		}

		state, err := session.State()
		switch {
		case err == nil:
			resp.Match = &state
		case errors.Is(err, domain.ErrNoMatch):
			// No active match is a normal state, not an error.
		default:
			writeError(w, r, err, "")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// HandlePlay joins the matchmaking queue.
func HandlePlay(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Play(r.Context()); err != nil {
			writeError(w, r, err, ErrMsgPlayFailed)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "searching"})
	}
}

// HandleCancelPlay leaves the matchmaking queue.
func HandleCancelPlay(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.CancelPlay(r.Context()); err != nil {
			writeError(w, r, err, ErrMsgCancelFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	}
}

// HandleRoll submits the opening roll of the local turn.
func HandleRoll(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dice, err := session.Roll(r.Context())
		if err != nil {
			writeError(w, r, err, ErrMsgRollFailed)
			return
		}
		writeJSON(w, http.StatusOK, RollResponse{Dice: dice})
	}
}

// HandleHold sets dice aside and either re-rolls or stops.
func HandleHold(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HoldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, ErrMsgInvalidRequest, http.StatusBadRequest)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			logger.FromContext(r.Context()).Warn(LogMsgRequestInvalid, "error", err)
			http.Error(w, ErrMsgInvalidRequest, http.StatusBadRequest)
			return
		}

		dice, err := session.Hold(r.Context(), req.Indices, req.Stop)
		if err != nil {
			writeError(w, r, err, ErrMsgHoldFailed)
			return
		}
		writeJSON(w, http.StatusOK, RollResponse{Dice: dice})
	}
}

// HandleDeposit moves funds into the game balance.
func HandleDeposit(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, ErrMsgInvalidRequest, http.StatusBadRequest)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			logger.FromContext(r.Context()).Warn(LogMsgRequestInvalid, "error", err)
			http.Error(w, ErrMsgInvalidRequest, http.StatusBadRequest)
			return
		}

		if err := session.Deposit(r.Context(), req.Amount); err != nil {
			writeError(w, r, err, ErrMsgDepositFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
	}
}

// HandleWithdraw returns the full game balance to the player's account.
func HandleWithdraw(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Withdraw(r.Context()); err != nil {
			writeError(w, r, err, ErrMsgWithdrawFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
	}
}

// HandleGetBalance reads the in-game balance.
func HandleGetBalance(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := session.Balance(r.Context())
		if err != nil {
			writeError(w, r, err, ErrMsgBalanceFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
	}
}

// HandleGetHistory lists finished matches, most recent first.
func HandleGetHistory(session GameSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := historyQuery{Limit: DefaultHistoryLimit}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, ErrMsgInvalidLimit, http.StatusBadRequest)
				return
			}
			query.Limit = parsed
		}

		if err := GetValidator().ValidateStruct(query); err != nil {
			logger.FromContext(r.Context()).Warn(LogMsgRequestInvalid, "error", err)
			http.Error(w, ErrMsgInvalidLimit, http.StatusBadRequest)
			return
		}

		records, err := session.History(r.Context(), query.Limit)
		if err != nil {
			writeError(w, r, err, ErrMsgHistoryFailed)
			return
		}
		if records == nil {
			records = []store.MatchRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": records})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP statuses. Player mistakes keep
// their domain message; everything else hides behind fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, domain.ErrNoMatch),
		errors.Is(err, domain.ErrNotYourTurn),
		errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrMatchOver),
		errors.Is(err, domain.ErrActionInFlight):
		status = http.StatusConflict
		message = err.Error()

	case errors.Is(err, domain.ErrInvalidHoldSelection),
		errors.Is(err, domain.ErrEmptyHold),
		errors.Is(err, domain.ErrBadDieIndex):
		status = http.StatusUnprocessableEntity
		message = err.Error()

	case errors.Is(err, domain.ErrExecutionFailed),
		errors.Is(err, domain.ErrSubmissionRejected):
		status = http.StatusBadGateway

	case errors.Is(err, domain.ErrNetworkTransient):
		status = http.StatusServiceUnavailable
	}

	if message == "" {
		message = err.Error()
	}

	logger.FromContext(r.Context()).Warn(fallback, "error", err, "status", status)
	writeJSON(w, status, map[string]string{"error": message})
}
