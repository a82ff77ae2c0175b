package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

type expectation struct {
	user string
	ch   chan *discordgo.Interaction
}

// Waiter routes component interactions to whoever is waiting on the
// message that hosts the component.
type Waiter struct {
	mu      sync.Mutex
	pending map[string]expectation
}

// NewWaiter creates an empty Waiter.
func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[string]expectation)}
}

// Expect registers interest in the first interaction by user on message.
// The returned func releases the registration.
func (w *Waiter) Expect(message, user string) (<-chan *discordgo.Interaction, func()) {
	ch := make(chan *discordgo.Interaction, 1)
	w.mu.Lock()
	w.pending[message] = expectation{user: user, ch: ch}
	w.mu.Unlock()
	return ch, func() {
		w.mu.Lock()
		if e, ok := w.pending[message]; ok && e.ch == ch {
			delete(w.pending, message)
		}
		w.mu.Unlock()
	}
}

// Dispatch delivers i to its waiter and reports whether one was found.
// Interactions from other users are not delivered.
func (w *Waiter) Dispatch(i *discordgo.Interaction) bool {
	if i == nil || i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.pending[i.Message.ID]
	if !ok || e.user != interactionUserID(i) {
		return false
	}
	delete(w.pending, i.Message.ID)
	e.ch <- i
	return true
}

// Len returns the number of outstanding registrations.
func (w *Waiter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func interactionUserID(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}
