package memory

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quiz-session-service/internal/domain"

	"github.com/google/uuid"
)

var errNoSpeech = errors.New("speech synthesis unavailable")

// StaticProvider serves quiz content from a fixed question bank instead of an
// AI backend. It powers demo deployments and tests; no credential required.
type StaticProvider struct {
	rnd *rand.Rand

	mu   sync.Mutex
	bank []domain.Question
}

func NewStaticProvider(bank []domain.Question) *StaticProvider {
	return &StaticProvider{
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
		bank: append([]domain.Question(nil), bank...),
	}
}

// Ready reports whether the bank has any content to serve.
func (p *StaticProvider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bank) > 0
}

// GenerateQuiz draws a shuffled selection from the bank. Exclusion keywords
// are matched against question prompts.
func (p *StaticProvider) GenerateQuiz(_ context.Context, cfg domain.QuizConfig, exclusions []string) (domain.Quiz, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.bank) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	pool := make([]domain.Question, 0, len(p.bank))
	for _, q := range p.bank {
		if promptExcluded(q.Prompt, exclusions) {
			continue
		}
		pool = append(pool, q)
	}
	if len(pool) == 0 {
		pool = append(pool, p.bank...)
	}
	p.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	count := cfg.Count
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}
	questions := make([]domain.Question, count)
	copy(questions, pool[:count])
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
	}

	title := cfg.Topic
	if title == "" {
		title = "Quiz"
	}
	return domain.Quiz{
		Title:     title,
		Questions: questions,
		Keywords:  keywordsFrom(questions),
	}, nil
}

// GenerateReplacement picks a bank question whose prompt differs from the one
// being replaced.
func (p *StaticProvider) GenerateReplacement(_ context.Context, _ domain.QuizConfig, avoidText string) (domain.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pool []domain.Question
	for _, q := range p.bank {
		if q.Prompt != avoidText {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	question := pool[p.rnd.Intn(len(pool))]
	question.ID = "sub-" + uuid.NewString()
	return question, nil
}

// EvaluateFreeResponse grades by case-insensitive comparison against the
// reference answer. Full credit on a match, none otherwise.
func (p *StaticProvider) EvaluateFreeResponse(_ context.Context, question domain.Question, userAnswer string) (domain.Evaluation, error) {
	want := strings.TrimSpace(strings.ToLower(question.CorrectAnswerText))
	got := strings.TrimSpace(strings.ToLower(userAnswer))
	if want != "" && want == got {
		return domain.Evaluation{Score: 1, Correct: true, Feedback: "That is correct."}, nil
	}
	feedback := "That is not correct."
	if question.CorrectAnswerText != "" {
		feedback = "The expected answer was: " + question.CorrectAnswerText
	}
	return domain.Evaluation{Score: 0, Correct: false, Feedback: feedback}, nil
}

func (p *StaticProvider) SynthesizeSpeech(_ context.Context, _ string, _ domain.TTSConfig) ([]byte, error) {
	return nil, errNoSpeech
}

// AskAbout answers with whatever static context the question carries.
func (p *StaticProvider) AskAbout(_ context.Context, question domain.Question, _ string) (string, error) {
	if question.Explanation != "" {
		return question.Explanation, nil
	}
	if question.Reference != "" {
		return "See: " + question.Reference, nil
	}
	return "No additional context is available for this question.", nil
}

func promptExcluded(prompt string, exclusions []string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range exclusions {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func keywordsFrom(questions []domain.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		word := firstKeyword(q.Prompt)
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

// firstKeyword extracts the first word of five letters or more as a cheap
// topic marker for the exclusion history.
func firstKeyword(prompt string) string {
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		word = strings.Trim(word, "?.,!:;\"'")
		if len(word) >= 5 {
			return word
		}
	}
	return ""
}
