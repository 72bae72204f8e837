package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quiz-session-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewLibrary(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func sampleQuiz(theme, subTopic string, keywords ...string) domain.Quiz {
	return domain.Quiz{
		Title:    theme + " quiz",
		Theme:    theme,
		SubTopic: subTopic,
		Keywords: keywords,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is it?", Options: []string{"a", "b"}, CorrectAnswerIndex: 1},
		},
	}
}

func TestLibrarySaveAndRandomQuiz(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	if err := lib.SaveQuiz(ctx, sampleQuiz("history", "rome")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := lib.SaveQuiz(ctx, sampleQuiz("science", "physics")); err != nil {
		t.Fatalf("save: %v", err)
	}

	quiz, err := lib.RandomQuiz(ctx, "history", "rome")
	if err != nil {
		t.Fatalf("random quiz: %v", err)
	}
	if quiz.Theme != "history" || quiz.SubTopic != "rome" {
		t.Fatalf("wrong quiz: %+v", quiz)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].CorrectAnswerIndex != 1 {
		t.Fatalf("document did not round-trip: %+v", quiz.Questions)
	}

	// theme-only lookup works too
	if _, err := lib.RandomQuiz(ctx, "science", ""); err != nil {
		t.Fatalf("theme lookup: %v", err)
	}
	// no filter draws from the whole library
	if _, err := lib.RandomQuiz(ctx, "", ""); err != nil {
		t.Fatalf("unfiltered lookup: %v", err)
	}
}

func TestLibraryRandomQuizNotFound(t *testing.T) {
	lib := newTestLibrary(t)
	if _, err := lib.RandomQuiz(context.Background(), "geography", ""); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLibraryGlobalKeywordsDeduplicatedNewestFirst(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	if err := lib.SaveQuiz(ctx, sampleQuiz("history", "", "rome", "egypt")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := lib.SaveQuiz(ctx, sampleQuiz("science", "", "atoms", "rome")); err != nil {
		t.Fatalf("save: %v", err)
	}

	keywords, err := lib.GlobalKeywords(ctx, 10)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(keywords) != 3 {
		t.Fatalf("expected 3 distinct keywords, got %v", keywords)
	}
	// last pushed keyword of the newest save is at the head
	if keywords[0] != "rome" {
		t.Fatalf("expected newest keyword first, got %v", keywords)
	}

	limited, err := lib.GlobalKeywords(ctx, 2)
	if err != nil {
		t.Fatalf("keywords limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected max respected, got %v", limited)
	}
}

func TestLibraryKeywordWindowTrimmed(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	for i := 0; i < keywordWindow+50; i++ {
		if err := lib.SaveQuiz(ctx, sampleQuiz("history", "", fmt.Sprintf("kw-%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	keywords, err := lib.GlobalKeywords(ctx, 0)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(keywords) > keywordWindow {
		t.Fatalf("keyword pool must stay within the window, got %d", len(keywords))
	}
	if keywords[0] != fmt.Sprintf("kw-%d", keywordWindow+49) {
		t.Fatalf("expected newest keyword first, got %q", keywords[0])
	}
}

func TestLibraryAvailableThemes(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	if err := lib.SaveQuiz(ctx, sampleQuiz("history", "rome")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := lib.SaveQuiz(ctx, sampleQuiz("history", "egypt")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := lib.SaveQuiz(ctx, sampleQuiz("science", "")); err != nil {
		t.Fatalf("save: %v", err)
	}

	themes, err := lib.AvailableThemes(ctx)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %v", themes)
	}
	if len(themes["history"]) != 2 {
		t.Fatalf("expected both history sub-topics, got %v", themes["history"])
	}
}
