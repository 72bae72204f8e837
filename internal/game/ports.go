package game

import (
	"context"

	"quiz-session-service/internal/domain"
)

// QuestionProvider produces quiz content. Implementations wrap a generative AI
// backend; the session only depends on this contract.
type QuestionProvider interface {
	// Ready reports whether a credential is configured. AI-only actions
	// short-circuit when it returns false.
	Ready() bool
	GenerateQuiz(ctx context.Context, cfg domain.QuizConfig, exclusions []string) (domain.Quiz, error)
	GenerateReplacement(ctx context.Context, cfg domain.QuizConfig, avoidText string) (domain.Question, error)
	EvaluateFreeResponse(ctx context.Context, question domain.Question, userAnswer string) (domain.Evaluation, error)
	SynthesizeSpeech(ctx context.Context, text string, tts domain.TTSConfig) ([]byte, error)
	AskAbout(ctx context.Context, question domain.Question, query string) (string, error)
}

// Narrator plays spoken text. Playback is fire-and-forget; Stop cancels any
// scheduled audio best-effort.
type Narrator interface {
	Speak(text string, tts domain.TTSConfig, prerendered []byte)
	Stop()
	Speaking() bool
}

// Library is the community store of previously generated quizzes and the shared
// topic-exclusion keyword set.
type Library interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	GlobalKeywords(ctx context.Context, max int) ([]string, error)
	RandomQuiz(ctx context.Context, theme, subTopic string) (domain.Quiz, error)
	AvailableThemes(ctx context.Context) (map[string][]string, error)
}
