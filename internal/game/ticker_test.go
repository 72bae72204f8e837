package game_test

import (
	"context"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/game"
)

func TestTickerDrivesCountdown(t *testing.T) {
	provider := &fakeProvider{ready: true, quiz: domain.Quiz{Title: "t", Questions: sampleQuestions(2)}}
	session, _ := newTestSession(t, provider)
	cfg := sampleConfig()
	cfg.EnableTimer = false
	if err := session.Generate(context.Background(), cfg); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := session.ConfirmStart(); err != nil {
		t.Fatalf("confirm start: %v", err)
	}

	ticker := game.NewTicker(time.Millisecond)
	ticker.Start(session)
	defer ticker.Stop()

	deadline := time.After(2 * time.Second)
	for session.State() != game.StatePlaying {
		select {
		case <-deadline:
			t.Fatalf("ticker never drove the countdown to PLAYING, state %s", session.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestTickerStopIsIdempotent(t *testing.T) {
	ticker := game.NewTicker(time.Millisecond)
	ticker.Stop()
	ticker.Stop()

	provider := &fakeProvider{ready: true, quiz: domain.Quiz{Title: "t", Questions: sampleQuestions(1)}}
	session, _ := newTestSession(t, provider)
	ticker.Start(session)
	ticker.Stop()
	ticker.Stop()
}
