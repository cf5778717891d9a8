package domain

// Game rule constants, mirroring the wagering contract.
const (
	// MaxDice is the number of dice in play at the start of each turn.
	MaxDice = 6

	// WinningScore is the banked total at which the contract ends the match
	// and pays out the pot.
	WinningScore = 2000

	// OneLumen is the smallest-unit value of one whole token.
	OneLumen int64 = 10_000_000

	// CostToPlay is the wager each player stakes to enter a match.
	CostToPlay int64 = 10 * OneLumen
)
