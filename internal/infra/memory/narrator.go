package memory

import (
	"sync"

	"quiz-session-service/internal/domain"
)

// Narrator is a no-op narration sink that only tracks the speaking flag.
// Server deployments use it when no audio output is attached; the snapshot
// stream still reflects narration state for clients that render it.
type Narrator struct {
	mu       sync.Mutex
	speaking bool
}

func NewNarrator() *Narrator {
	return &Narrator{}
}

func (n *Narrator) Speak(text string, _ domain.TTSConfig, _ []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if text == "" {
		return
	}
	n.speaking = true
}

func (n *Narrator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.speaking = false
}

func (n *Narrator) Speaking() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.speaking
}
