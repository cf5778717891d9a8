// Package event defines the strongly-typed game events decoded from the
// contract's event stream, and an in-process bus that fans them out to the
// reconciler and presentation subscribers.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/farklezone/farkle-client/internal/domain"
)

// Kind discriminates the five contract event variants. Values match the
// first topic of the corresponding wire event.
type Kind string

// Contract event kinds
const (
	KindMatch Kind = "match"
	KindRoll  Kind = "roll"
	KindHold  Kind = "reroll"
	KindBust  Kind = "bust"
	KindWin   Kind = "win"
)

// Event is one decoded contract game event.
type Event interface {
	// Kind returns the wire discriminator of the event.
	Kind() Kind

	// Subject returns the player the event is about.
	Subject() domain.Player
}

// MatchStarted announces a freshly engaged match. First names the player
// who acts first.
type MatchStarted struct {
	Player      domain.Player `json:"player"`
	OtherPlayer domain.Player `json:"other_player"`
	First       domain.Player `json:"first"`
}

// Roll carries a fresh roll outcome. Empty dice signal a pure turn handoff:
// the named player's turn begins and no score changes.
type Roll struct {
	Player domain.Player  `json:"player"`
	Dice   domain.DieRoll `json:"dice"`
}

// Handoff reports whether the roll is a turn-handoff signal rather than a
// scoring roll.
func (e Roll) Handoff() bool { return len(e.Dice) == 0 }

// Hold records a player setting dice aside. Score is the increment the held
// dice earned; Stop means the turn score banked into the total and the turn
// passed.
type Hold struct {
	Player domain.Player  `json:"player"`
	Dice   domain.DieRoll `json:"dice"`
	Score  int            `json:"score"`
	Stop   bool           `json:"stop"`
}

// Bust records a roll that scored zero, forfeiting the turn's unbanked
// points.
type Bust struct {
	Player domain.Player  `json:"player"`
	Dice   domain.DieRoll `json:"dice"`
}

// Win concludes the match. Score is the winner's final banked total.
type Win struct {
	Player domain.Player `json:"player"`
	Score  int           `json:"score"`
}

// Kind implementations
func (MatchStarted) Kind() Kind { return KindMatch }
func (Roll) Kind() Kind         { return KindRoll }
func (Hold) Kind() Kind         { return KindHold }
func (Bust) Kind() Kind         { return KindBust }
func (Win) Kind() Kind          { return KindWin }

// Subject implementations
func (e MatchStarted) Subject() domain.Player { return e.Player }
func (e Roll) Subject() domain.Player         { return e.Player }
func (e Hold) Subject() domain.Player         { return e.Player }
func (e Bust) Subject() domain.Player         { return e.Player }
func (e Win) Subject() domain.Player          { return e.Player }

// Handler is a function that handles a decoded event.
type Handler func(ctx context.Context, ev Event) error

// Bus defines the interface for the in-process event bus.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(kind Kind, handler Handler)
	SubscribeAll(handler Handler)
}

// MemoryBus is an in-memory implementation of Bus. Handlers run
// synchronously on the publisher's goroutine, preserving the event stream's
// arrival order end to end.
type MemoryBus struct {
	handlers map[Kind][]Handler
	all      []Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[Kind][]Handler)}
}

// Publish delivers ev to every subscriber. Handler errors are collected;
// every handler runs regardless.
func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := append(append([]Handler(nil), b.all...), b.handlers[ev.Kind()]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), ev.Kind(), errs)
	}
	return nil
}

// Subscribe registers handler for one event kind.
func (b *MemoryBus) Subscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// SubscribeAll registers handler for every event kind. All-kind handlers
// run before kind-specific ones.
func (b *MemoryBus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}
