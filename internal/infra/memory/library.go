package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/game"

	"golang.org/x/sync/singleflight"
)

// keywordWindow bounds how many recently saved quizzes contribute keywords to
// the shared exclusion pool.
const keywordWindow = 100

// Library is an in-process community library: saved quizzes, the shared
// keyword pool, and random prebuilt lookup. Suitable for single-node
// deployments and tests.
type Library struct {
	rnd *rand.Rand

	mu      sync.RWMutex
	quizzes []domain.Quiz
}

func NewLibrary() *Library {
	return &Library{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewLibraryWithQuizzes seeds the library, newest last.
func NewLibraryWithQuizzes(quizzes []domain.Quiz) *Library {
	lib := NewLibrary()
	lib.quizzes = append(lib.quizzes, quizzes...)
	return lib
}

func (l *Library) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quizzes = append(l.quizzes, quiz)
	return nil
}

// GlobalKeywords returns up to max distinct keywords from the most recently
// saved quizzes, newest first.
func (l *Library) GlobalKeywords(_ context.Context, max int) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	scanned := 0
	for i := len(l.quizzes) - 1; i >= 0 && scanned < keywordWindow; i-- {
		scanned++
		for _, kw := range l.quizzes[i].Keywords {
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
			if max > 0 && len(out) >= max {
				return out, nil
			}
		}
	}
	return out, nil
}

// RandomQuiz picks a random saved quiz matching the theme and, when given,
// the sub-topic.
func (l *Library) RandomQuiz(_ context.Context, theme, subTopic string) (domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matches []int
	for i, quiz := range l.quizzes {
		if theme != "" && quiz.Theme != theme {
			continue
		}
		if subTopic != "" && quiz.SubTopic != subTopic {
			continue
		}
		matches = append(matches, i)
	}
	if len(matches) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quizzes[matches[l.rnd.Intn(len(matches))]], nil
}

// AvailableThemes lists every saved theme with its distinct sub-topics.
func (l *Library) AvailableThemes(_ context.Context) (map[string][]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	themes := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	for _, quiz := range l.quizzes {
		if quiz.Theme == "" {
			continue
		}
		if _, ok := seen[quiz.Theme]; !ok {
			seen[quiz.Theme] = make(map[string]struct{})
			themes[quiz.Theme] = nil
		}
		if quiz.SubTopic == "" {
			continue
		}
		if _, ok := seen[quiz.Theme][quiz.SubTopic]; ok {
			continue
		}
		seen[quiz.Theme][quiz.SubTopic] = struct{}{}
		themes[quiz.Theme] = append(themes[quiz.Theme], quiz.SubTopic)
	}
	return themes, nil
}

// CachedLibrary wraps a backing library and caches its read paths with TTL.
// Writes pass straight through. Concurrent cache misses for the same key are
// collapsed into one backend call.
type CachedLibrary struct {
	backend game.Library
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu       sync.RWMutex
	keywords *cachedKeywords
	themes   *cachedThemes
}

type cachedKeywords struct {
	keywords  []string
	max       int
	expiresAt time.Time
}

type cachedThemes struct {
	themes    map[string][]string
	expiresAt time.Time
}

func NewCachedLibrary(backend game.Library, ttl time.Duration) *CachedLibrary {
	return &CachedLibrary{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedLibrary) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	return c.backend.SaveQuiz(ctx, quiz)
}

// RandomQuiz is never cached: repeat calls must keep re-rolling.
func (c *CachedLibrary) RandomQuiz(ctx context.Context, theme, subTopic string) (domain.Quiz, error) {
	return c.backend.RandomQuiz(ctx, theme, subTopic)
}

func (c *CachedLibrary) GlobalKeywords(ctx context.Context, max int) ([]string, error) {
	now := c.clock()

	c.mu.RLock()
	if e := c.keywords; e != nil && e.max == max && e.expiresAt.After(now) {
		c.mu.RUnlock()
		return append([]string(nil), e.keywords...), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("keywords", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if e := c.keywords; e != nil && e.max == max && e.expiresAt.After(now) {
			c.mu.RUnlock()
			return e.keywords, nil
		}
		c.mu.RUnlock()

		keywords, err := c.backend.GlobalKeywords(ctx, max)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.keywords = &cachedKeywords{
			keywords:  keywords,
			max:       max,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return keywords, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), result.([]string)...), nil
}

func (c *CachedLibrary) AvailableThemes(ctx context.Context) (map[string][]string, error) {
	now := c.clock()

	c.mu.RLock()
	if e := c.themes; e != nil && e.expiresAt.After(now) {
		c.mu.RUnlock()
		return copyThemes(e.themes), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("themes", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if e := c.themes; e != nil && e.expiresAt.After(now) {
			c.mu.RUnlock()
			return e.themes, nil
		}
		c.mu.RUnlock()

		themes, err := c.backend.AvailableThemes(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.themes = &cachedThemes{themes: themes, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return themes, nil
	})
	if err != nil {
		return nil, err
	}
	return copyThemes(result.(map[string][]string)), nil
}

// copyThemes clones the cached theme map so callers cannot corrupt the cache
// through the returned value.
func copyThemes(themes map[string][]string) map[string][]string {
	out := make(map[string][]string, len(themes))
	for theme, subTopics := range themes {
		out[theme] = append([]string(nil), subTopics...)
	}
	return out
}

func (c *CachedLibrary) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
