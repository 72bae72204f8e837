package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
)

func sampleQuiz(theme, subTopic string, keywords ...string) domain.Quiz {
	return domain.Quiz{
		Title:    theme + " quiz",
		Theme:    theme,
		SubTopic: subTopic,
		Keywords: keywords,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is it?", Options: []string{"a", "b"}, CorrectAnswerIndex: 0},
		},
	}
}

func TestLibraryGlobalKeywordsNewestFirst(t *testing.T) {
	lib := NewLibrary()
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
	want := []string{"atoms", "rome", "egypt"}
	if len(keywords) != len(want) {
		t.Fatalf("expected %v, got %v", want, keywords)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keywords)
		}
	}
}

func TestLibraryGlobalKeywordsRespectsMax(t *testing.T) {
	lib := NewLibrary()
	ctx := context.Background()
	if err := lib.SaveQuiz(ctx, sampleQuiz("history", "", "a", "b", "c", "d")); err != nil {
		t.Fatalf("save: %v", err)
	}
	keywords, err := lib.GlobalKeywords(ctx, 2)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", keywords)
	}
}

func TestLibraryRandomQuizFiltersThemeAndSubTopic(t *testing.T) {
	lib := NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "rome"),
		sampleQuiz("history", "egypt"),
		sampleQuiz("science", "physics"),
	})
	ctx := context.Background()

	quiz, err := lib.RandomQuiz(ctx, "history", "egypt")
	if err != nil {
		t.Fatalf("random quiz: %v", err)
	}
	if quiz.Theme != "history" || quiz.SubTopic != "egypt" {
		t.Fatalf("wrong quiz selected: %+v", quiz)
	}

	if _, err := lib.RandomQuiz(ctx, "geography", ""); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLibraryAvailableThemes(t *testing.T) {
	lib := NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "rome"),
		sampleQuiz("history", "rome"),
		sampleQuiz("history", "egypt"),
		sampleQuiz("science", ""),
	})

	themes, err := lib.AvailableThemes(context.Background())
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %v", themes)
	}
	if got := themes["history"]; len(got) != 2 {
		t.Fatalf("expected deduplicated sub-topics, got %v", got)
	}
	if _, ok := themes["science"]; !ok {
		t.Fatalf("expected science theme present, got %v", themes)
	}
}

type countingLibrary struct {
	*Library
	keywordCalls int
	themeCalls   int
}

func (c *countingLibrary) GlobalKeywords(ctx context.Context, max int) ([]string, error) {
	c.keywordCalls++
	return c.Library.GlobalKeywords(ctx, max)
}

func (c *countingLibrary) AvailableThemes(ctx context.Context) (map[string][]string, error) {
	c.themeCalls++
	return c.Library.AvailableThemes(ctx)
}

func TestCachedLibraryCachesKeywords(t *testing.T) {
	backend := &countingLibrary{Library: NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "", "rome"),
	})}
	cached := NewCachedLibrary(backend, time.Minute)
	ctx := context.Background()

	if _, err := cached.GlobalKeywords(ctx, 10); err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if backend.keywordCalls != 1 {
		t.Fatalf("expected backend once, got %d", backend.keywordCalls)
	}

	if _, err := cached.GlobalKeywords(ctx, 10); err != nil {
		t.Fatalf("keywords 2: %v", err)
	}
	if backend.keywordCalls != 1 {
		t.Fatalf("expected cache hit, backend calls %d", backend.keywordCalls)
	}

	// expired entries are refetched
	cached.clock = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := cached.GlobalKeywords(ctx, 10); err != nil {
		t.Fatalf("keywords 3: %v", err)
	}
	if backend.keywordCalls != 2 {
		t.Fatalf("expected refetch after ttl, backend calls %d", backend.keywordCalls)
	}
}

func TestCachedLibraryDifferentMaxBypassesCache(t *testing.T) {
	backend := &countingLibrary{Library: NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "", "rome", "egypt"),
	})}
	cached := NewCachedLibrary(backend, time.Minute)
	ctx := context.Background()

	if _, err := cached.GlobalKeywords(ctx, 1); err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if _, err := cached.GlobalKeywords(ctx, 2); err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if backend.keywordCalls != 2 {
		t.Fatalf("expected two backend calls for different limits, got %d", backend.keywordCalls)
	}
}

func TestCachedLibraryCachesThemes(t *testing.T) {
	backend := &countingLibrary{Library: NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "rome"),
	})}
	cached := NewCachedLibrary(backend, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cached.AvailableThemes(ctx); err != nil {
			t.Fatalf("themes %d: %v", i, err)
		}
	}
	if backend.themeCalls != 1 {
		t.Fatalf("expected one backend call, got %d", backend.themeCalls)
	}
}

func TestCachedLibraryThemesImmuneToCallerMutation(t *testing.T) {
	backend := &countingLibrary{Library: NewLibraryWithQuizzes([]domain.Quiz{
		sampleQuiz("history", "rome"),
		sampleQuiz("science", "physics"),
	})}
	cached := NewCachedLibrary(backend, time.Minute)
	ctx := context.Background()

	themes, err := cached.AvailableThemes(ctx)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	delete(themes, "history")
	themes["science"] = append(themes["science"], "chemistry")

	again, err := cached.AvailableThemes(ctx)
	if err != nil {
		t.Fatalf("themes 2: %v", err)
	}
	if _, ok := again["history"]; !ok {
		t.Fatalf("cached entry corrupted by caller delete, got %v", again)
	}
	if got := again["science"]; len(got) != 1 || got[0] != "physics" {
		t.Fatalf("cached entry corrupted by caller append, got %v", got)
	}
	if backend.themeCalls != 1 {
		t.Fatalf("expected the second read to stay a cache hit, got %d calls", backend.themeCalls)
	}
}

func TestCachedLibraryRandomQuizNotCached(t *testing.T) {
	backend := NewLibraryWithQuizzes([]domain.Quiz{sampleQuiz("history", "rome")})
	cached := NewCachedLibrary(backend, time.Minute)
	ctx := context.Background()

	if err := cached.SaveQuiz(ctx, sampleQuiz("science", "physics")); err != nil {
		t.Fatalf("save: %v", err)
	}
	quiz, err := cached.RandomQuiz(ctx, "science", "physics")
	if err != nil {
		t.Fatalf("random quiz: %v", err)
	}
	if quiz.Theme != "science" {
		t.Fatalf("writes must be visible immediately, got %+v", quiz)
	}
}
