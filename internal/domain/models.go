package domain

// Difficulty is the requested depth of quiz questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Next returns the tier one step harder; hard stays hard.
func (d Difficulty) Next() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	default:
		return DifficultyHard
	}
}

// QuizFormat selects how answers are collected.
type QuizFormat string

const (
	FormatMultipleChoice QuizFormat = "multiple_choice"
	FormatTrueFalse      QuizFormat = "true_false"
	FormatOpenEnded      QuizFormat = "open_ended"
)

// HintType enumerates the hint kinds a session may allow.
type HintType string

const (
	HintStandard HintType = "standard"
	HintAskAI    HintType = "ask_ai"
)

// UnlimitedHints is the sentinel budget that is never decremented.
const UnlimitedHints = -1

// TTSConfig captures the narration settings snapshotted into a session config.
type TTSConfig struct {
	Enabled  bool    `json:"enabled" yaml:"enabled"`
	AutoRead bool    `json:"autoRead" yaml:"autoRead"`
	Engine   string  `json:"engine" yaml:"engine"` // "ai" or "local"
	Voice    string  `json:"voice" yaml:"voice"`
	Rate     float64 `json:"rate" yaml:"rate"`
	Volume   float64 `json:"volume" yaml:"volume"`
}

// EngineAI marks the synthesized voice that supports pre-rendered audio.
const EngineAI = "ai"

// QuizConfig is the immutable configuration snapshot taken when a session is generated.
// Count is the only field mutated afterwards, and only when a prebuilt quiz is sliced.
type QuizConfig struct {
	Topic         string     `json:"topic"`
	SubTopic      string     `json:"subTopic"`
	SpecificTopic string     `json:"specificTopic"`
	Difficulty    Difficulty `json:"difficulty"`
	Temperature   float64    `json:"temperature"`
	Format        QuizFormat `json:"format"`
	Count         int        `json:"count"`

	TimeLimit        int  `json:"timeLimit"` // seconds per question
	EnableTimer      bool `json:"enableTimer"`
	EnableTimerSound bool `json:"enableTimerSound"`

	MaxHints  int        `json:"maxHints"` // -1 means unlimited
	HintTypes []HintType `json:"hintTypes"`

	TeamMode          bool     `json:"teamMode"`
	TeamNames         []string `json:"teamNames"`
	QuestionsPerRound int      `json:"questionsPerRound"`

	TTS TTSConfig `json:"tts"`
}

// Question is a single quiz question. Options is empty and CorrectAnswerIndex is -1
// for open-ended questions; CorrectAnswerText then holds the canonical answer.
type Question struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	CorrectAnswerText  string   `json:"correctAnswerText,omitempty"`
	Reference          string   `json:"reference"`
	Hint               string   `json:"hint"`
	Explanation        string   `json:"explanation"`
	Audio              []byte   `json:"audio,omitempty"` // pre-rendered narration payload
}

// Quiz is the generated content of one session.
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Keywords  []string   `json:"keywords"`
	Theme     string     `json:"theme,omitempty"`
	SubTopic  string     `json:"subTopic,omitempty"`
}

// Clone returns a copy that shares no slice backing with the receiver, so a
// saved or handed-off quiz is unaffected by later in-place question
// replacement in the live session.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = append([]Question(nil), q.Questions...)
	out.Keywords = append([]string(nil), q.Keywords...)
	return out
}

// Team accumulates score and counters for one team across a session.
// Score is kept to one decimal place.
type Team struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correctCount"`
	WrongCount   int     `json:"wrongCount"`
	HintsUsed    int     `json:"hintsUsed"`
}

// Answer is one recorded slot of the per-question answer ledger. The zero value
// is the "unanswered" sentinel, distinguishable from an answered zero option.
type Answer struct {
	Answered    bool   `json:"answered"`
	OptionIndex int    `json:"optionIndex"` // -1 when a text answer was given
	Text        string `json:"text,omitempty"`
}

// AnswerResult is the scoring signal submitted for the active (or reviewed) question.
type AnswerResult struct {
	Score       float64 `json:"score"` // 0..1
	Correct     bool    `json:"correct"`
	OptionIndex *int    `json:"optionIndex,omitempty"`
	Text        string  `json:"text,omitempty"`
}

// Evaluation is the provider verdict for a free-response answer.
type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Correct  bool    `json:"correct"`
}
