// Package game owns the quiz session state machine: game state transitions,
// countdowns, team rotation, scoring, hint budget, and the replacement
// protocol. All mutation goes through the named operations on Session and is
// serialized behind one mutex.
package game

import (
	"math"
	"sync"
	"time"

	"quiz-session-service/internal/apierror"
	"quiz-session-service/internal/domain"
)

// State is the single active phase of a session.
type State string

const (
	StateSetup        State = "SETUP"
	StateReadyCheck   State = "READY_CHECK"
	StateCountdown    State = "COUNTDOWN"
	StatePlaying      State = "PLAYING"
	StateRoundSummary State = "ROUND_SUMMARY"
	StateFinished     State = "FINISHED"
)

// PendingAction is an open confirmation gate. While set, all tick- and
// input-driven progress is frozen.
type PendingAction string

const (
	PendingNone         PendingAction = ""
	PendingReset        PendingAction = "RESET"
	PendingClearHistory PendingAction = "CLEAR_HISTORY"
)

// Settings are the session tunables with their observed defaults.
type Settings struct {
	CooldownSeconds     int
	CountdownStart      int
	KeywordHistoryLimit int
	GlobalKeywordFetch  int
}

// DefaultSettings returns the standard tunables: 60s quota cooldown, 3-2-1
// countdown, 50-entry topic history, 35 shared exclusion keywords.
func DefaultSettings() Settings {
	return Settings{
		CooldownSeconds:     60,
		CountdownStart:      3,
		KeywordHistoryLimit: 50,
		GlobalKeywordFetch:  35,
	}
}

var teamColors = []string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b"}

const soloColor = "#4287f5"

// Session is the root aggregate of one play-through. It is safe for use from
// multiple goroutines; every operation takes the session mutex, so tick
// processing and user actions never interleave mid-mutation.
type Session struct {
	provider QuestionProvider
	narrator Narrator
	library  Library
	settings Settings
	now      func() time.Time

	mu    sync.Mutex
	epoch uint64 // identity token; bumped on reset and regeneration

	state      State
	cfg        *domain.QuizConfig
	quiz       *domain.Quiz
	teams      []domain.Team
	answers    []domain.Answer
	usedTopics []string

	current   int // question index
	round     int
	teamIndex int

	timeLimit int
	timeLeft  int
	countdown int
	cooldown  int

	hintsRemaining int
	answered       bool
	reviewing      bool
	reviewIndex    int
	voided         map[int]struct{}

	generating bool
	skipping   bool
	replacing  bool

	errDetail *apierror.Detail
	pending   PendingAction

	subscribers map[chan Snapshot]struct{}
}

// NewSession builds an idle session in SETUP.
func NewSession(provider QuestionProvider, narrator Narrator, library Library, settings Settings) *Session {
	return newSessionWithClock(provider, narrator, library, settings, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(provider QuestionProvider, narrator Narrator, library Library, settings Settings, now func() time.Time) *Session {
	return newSessionWithClock(provider, narrator, library, settings, now)
}

func newSessionWithClock(provider QuestionProvider, narrator Narrator, library Library, settings Settings, now func() time.Time) *Session {
	if settings.CooldownSeconds <= 0 {
		settings = DefaultSettings()
	}
	return &Session{
		provider:    provider,
		narrator:    narrator,
		library:     library,
		settings:    settings,
		now:         now,
		state:       StateSetup,
		round:       1,
		voided:      make(map[int]struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// QuestionView is the client-facing projection of the active (or reviewed)
// question. Answer fields are withheld until the slot has been answered.
type QuestionView struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	Hint               string   `json:"hint,omitempty"`
	Reference          string   `json:"reference,omitempty"`
	Revealed           bool     `json:"revealed"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	CorrectAnswerText  string   `json:"correctAnswerText,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Snapshot is the read-only projection observers render from.
type Snapshot struct {
	State          State                 `json:"state"`
	QuizTitle      string                `json:"quizTitle,omitempty"`
	QuestionCount  int                   `json:"questionCount"`
	QuestionIndex  int                   `json:"questionIndex"`
	Round          int                   `json:"round"`
	TeamIndex      int                   `json:"teamIndex"`
	Teams          []domain.Team         `json:"teams"`
	Answers        []domain.Answer       `json:"answers"`
	Question       *QuestionView         `json:"question,omitempty"`
	TimeLeft       int                   `json:"timeLeft"`
	TimeLimit      int                   `json:"timeLimit"`
	Countdown      int                   `json:"countdown"`
	Cooldown       int                   `json:"cooldown"`
	HintsRemaining int                   `json:"hintsRemaining"`
	Answered       bool                  `json:"answered"`
	Reviewing      bool                  `json:"reviewing"`
	ReviewIndex    int                   `json:"reviewIndex"`
	Voided         []int                 `json:"voided,omitempty"`
	Error          *apierror.Detail      `json:"error,omitempty"`
	Pending        PendingAction         `json:"pending,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Snapshot returns the current projection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          s.state,
		QuestionIndex:  s.current,
		Round:          s.round,
		TeamIndex:      s.teamIndex,
		Teams:          append([]domain.Team(nil), s.teams...),
		Answers:        append([]domain.Answer(nil), s.answers...),
		TimeLeft:       s.timeLeft,
		TimeLimit:      s.timeLimit,
		Countdown:      s.countdown,
		Cooldown:       s.cooldown,
		HintsRemaining: s.hintsRemaining,
		Answered:       s.answered,
		Reviewing:      s.reviewing,
		ReviewIndex:    s.reviewIndex,
		Error:          s.errDetail,
		Pending:        s.pending,
		UpdatedAt:      s.now(),
	}
	if s.quiz != nil {
		snap.QuizTitle = s.quiz.Title
		snap.QuestionCount = len(s.quiz.Questions)
		idx := s.current
		if s.reviewing {
			idx = s.reviewIndex
		}
		if (s.state == StatePlaying || s.reviewing) && idx >= 0 && idx < len(s.quiz.Questions) {
			snap.Question = s.questionViewLocked(idx)
		}
	}
	for idx := range s.voided {
		snap.Voided = append(snap.Voided, idx)
	}
	return snap
}

// questionViewLocked projects one question for clients. Correct-answer fields
// stay hidden until the slot is answered so the socket payload cannot leak the
// solution mid-question.
func (s *Session) questionViewLocked(idx int) *QuestionView {
	question := s.quiz.Questions[idx]
	view := &QuestionView{
		ID:                 question.ID,
		Prompt:             question.Prompt,
		Options:            append([]string(nil), question.Options...),
		Hint:               question.Hint,
		Reference:          question.Reference,
		CorrectAnswerIndex: -1,
	}
	if idx < len(s.answers) && s.answers[idx].Answered {
		view.Revealed = true
		view.CorrectAnswerIndex = question.CorrectAnswerIndex
		view.CorrectAnswerText = question.CorrectAnswerText
		view.Explanation = question.Explanation
	}
	return view
}

// Subscribe returns a channel receiving a snapshot after every mutation.
// The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale update so a slow reader never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// CurrentQuestion returns the question at the active (or reviewed) index.
func (s *Session) CurrentQuestion() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil {
		return domain.Question{}, domain.ErrNoQuiz
	}
	idx := s.current
	if s.reviewing {
		idx = s.reviewIndex
	}
	if idx < 0 || idx >= len(s.quiz.Questions) {
		return domain.Question{}, domain.ErrQuestionIndex
	}
	return s.quiz.Questions[idx], nil
}

// State returns the active game state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UsedTopics returns a copy of the rolling topic-exclusion history.
func (s *Session) UsedTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.usedTopics...)
}

// DismissError clears the active structured error, unblocking timers and input.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errDetail = nil
	s.broadcastLocked()
}

// RequestReset opens the reset confirmation gate, or resets immediately when
// already in SETUP.
func (s *Session) RequestReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSetup {
		s.resetLocked()
	} else {
		s.pending = PendingReset
	}
	s.broadcastLocked()
}

// RequestClearHistory opens the clear-history confirmation gate.
func (s *Session) RequestClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = PendingClearHistory
	s.broadcastLocked()
}

// ConfirmPending executes the open confirmation gate.
func (s *Session) ConfirmPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.pending {
	case PendingReset:
		s.resetLocked()
	case PendingClearHistory:
		s.usedTopics = nil
	}
	s.pending = PendingNone
	s.broadcastLocked()
}

// CancelPending closes the confirmation gate without acting.
func (s *Session) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = PendingNone
	s.broadcastLocked()
}

// Reset unconditionally returns the session to SETUP. Results of provider
// calls still in flight are discarded when they resolve.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.broadcastLocked()
}

func (s *Session) resetLocked() {
	s.epoch++
	if s.narrator != nil {
		s.narrator.Stop()
	}
	s.state = StateSetup
	s.cfg = nil
	s.quiz = nil
	s.teams = nil
	s.answers = nil
	s.current = 0
	s.round = 1
	s.teamIndex = 0
	s.timeLeft = 0
	s.timeLimit = 0
	s.countdown = 0
	s.cooldown = 0
	s.hintsRemaining = 0
	s.answered = false
	s.reviewing = false
	s.reviewIndex = 0
	s.voided = make(map[int]struct{})
	s.generating = false
	s.skipping = false
	s.replacing = false
	s.errDetail = nil
	s.pending = PendingNone
}

// applyFailureLocked classifies a provider failure. Quota failures freeze the
// session behind a cooldown instead of surfacing a blocking error.
func (s *Session) applyFailureLocked(err error) {
	detail := apierror.Classify(err)
	if !detail.Blocking() {
		s.cooldown = s.settings.CooldownSeconds
		if s.narrator != nil {
			s.narrator.Stop()
		}
		return
	}
	s.errDetail = &detail
}

// inputBlockedLocked reports why tick- and input-driven progress is frozen.
func (s *Session) inputBlockedLocked() error {
	if s.cooldown > 0 {
		return domain.ErrCooldownActive
	}
	if s.errDetail != nil {
		return domain.ErrBlockingError
	}
	if s.pending != PendingNone {
		return domain.ErrConfirmationPending
	}
	return nil
}

// round1 keeps team scores at one decimal place to avoid float drift.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
