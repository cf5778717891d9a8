package domain

// Player is a ledger account address identifying one side of a match.
type Player string

// DieRoll is an ordered sequence of die faces in [1,6] as produced by the
// ledger. A roll is immutable once received; length never exceeds MaxDice.
type DieRoll []int

// Phase is the reconciler's view of where the match stands, from the local
// player's perspective.
type Phase string

// Match phases
const (
	// PhaseWaitingForOpponent means the opponent is acting (or the match has
	// not started yet) and no local action is expected.
	PhaseWaitingForOpponent Phase = "waiting_for_opponent"

	// PhaseRollPending means it is the local player's turn and no dice have
	// been rolled yet.
	PhaseRollPending Phase = "roll_pending"

	// PhaseChoosingHold means the local player rolled and must pick dice to
	// hold before rolling again or stopping.
	PhaseChoosingHold Phase = "choosing_hold"

	// PhaseBusted means the local player's last roll scored zero and the
	// turn passed to the opponent.
	PhaseBusted Phase = "busted"

	// PhaseWon and PhaseLost are terminal.
	PhaseWon  Phase = "won"
	PhaseLost Phase = "lost"
)

// Terminal reports whether the phase ends the match.
func (p Phase) Terminal() bool {
	return p == PhaseWon || p == PhaseLost
}

// MatchState is the single authoritative-local view of one active match.
// It is owned exclusively by the reconciler: only decoded ledger events and
// the settlement of locally issued actions may mutate it.
type MatchState struct {
	MatchID     string
	Self        Player
	Opponent    Player
	TurnScore   map[Player]int
	TotalScore  map[Player]int
	CurrentTurn Player
	Phase       Phase

	// LastRoll holds the local player's most recent unresolved roll while
	// in PhaseChoosingHold.
	LastRoll DieRoll

	// Generation increments on every local score mutation. Authoritative
	// score read-backs snapshot it when issued and only apply if it has not
	// moved since.
	Generation uint64
}

// NewMatchState creates match state for a freshly paired match.
func NewMatchState(matchID string, self, opponent Player) *MatchState {
	return &MatchState{
		MatchID:    matchID,
		Self:       self,
		Opponent:   opponent,
		TurnScore:  map[Player]int{self: 0, opponent: 0},
		TotalScore: map[Player]int{self: 0, opponent: 0},
		Phase:      PhaseWaitingForOpponent,
	}
}

// Other returns the player opposing p within this match.
func (m *MatchState) Other(p Player) Player {
	if p == m.Self {
		return m.Opponent
	}
	return m.Self
}

// IsSelf reports whether p is the local player.
func (m *MatchState) IsSelf(p Player) bool {
	return p == m.Self
}

// Snapshot returns a deep copy safe to hand to presentation code.
func (m *MatchState) Snapshot() MatchState {
	out := *m
	out.TurnScore = map[Player]int{m.Self: m.TurnScore[m.Self], m.Opponent: m.TurnScore[m.Opponent]}
	out.TotalScore = map[Player]int{m.Self: m.TotalScore[m.Self], m.Opponent: m.TotalScore[m.Opponent]}
	out.LastRoll = append(DieRoll(nil), m.LastRoll...)
	return out
}
