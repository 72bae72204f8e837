package game

import (
	"context"

	"quiz-session-service/internal/domain"
)

// ConfirmStart moves READY_CHECK into the pre-round countdown and resets all
// per-run counters.
func (s *Session) ConfirmStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReadyCheck {
		return domain.ErrInvalidTransition
	}
	if s.quiz == nil {
		return domain.ErrNoQuiz
	}
	s.state = StateCountdown
	s.countdown = s.settings.CountdownStart
	s.current = 0
	s.round = 1
	s.teamIndex = 0
	s.answers = make([]domain.Answer, len(s.quiz.Questions))
	s.timeLeft = s.timeLimit
	s.answered = false
	s.reviewing = false
	s.reviewIndex = 0
	s.skipping = false
	s.voided = make(map[int]struct{})
	s.broadcastLocked()
	return nil
}

// Tick advances every countdown by one second. The cooldown gates all other
// progress; a blocking error or an open confirmation gate freezes everything.
// The per-question timer reaching zero auto-submits a zero-score answer.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cooldown > 0 {
		s.cooldown--
		s.broadcastLocked()
		return
	}
	if s.errDetail != nil || s.pending != PendingNone {
		return
	}

	if s.state == StateCountdown {
		if s.countdown > 0 {
			s.countdown--
		}
		if s.countdown == 0 {
			s.state = StatePlaying
			s.speakQuestionLocked()
		}
		s.broadcastLocked()
		return
	}

	if s.cfg == nil || !s.cfg.EnableTimer || s.skipping {
		return
	}
	if !s.timerPendingLocked() {
		return
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	if s.timeLeft == 0 {
		// time up: record an incorrect, zero-score answer
		s.submitLocked(domain.AnswerResult{Score: 0, Correct: false})
	}
	s.broadcastLocked()
}

// timerPendingLocked reports whether the per-question timer is armed: an
// unanswered active question, or an unanswered slot being reviewed.
func (s *Session) timerPendingLocked() bool {
	if s.state == StatePlaying && !s.answered {
		return true
	}
	if s.reviewing && s.reviewIndex < len(s.answers) && !s.answers[s.reviewIndex].Answered {
		return true
	}
	return false
}

// SubmitAnswer scores the active question (or the reviewed slot). A second
// submission for an already-answered question is rejected and the prior
// recorded answer stands.
func (s *Session) SubmitAnswer(result domain.AnswerResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inputBlockedLocked(); err != nil {
		return err
	}
	if s.quiz == nil {
		return domain.ErrNoQuiz
	}
	if !s.reviewing && s.state != StatePlaying {
		return domain.ErrInvalidTransition
	}
	target := s.current
	if s.reviewing {
		target = s.reviewIndex
	}
	if target < 0 || target >= len(s.answers) {
		return domain.ErrQuestionIndex
	}
	if s.answers[target].Answered {
		return domain.ErrAlreadyAnswered
	}
	s.submitLocked(result)
	s.broadcastLocked()
	return nil
}

// submitLocked applies a scoring result to the target team and records the
// answer. Correct and wrong counters are mutually exclusive per submission.
func (s *Session) submitLocked(result domain.AnswerResult) {
	if s.narrator != nil {
		s.narrator.Stop()
	}

	target := s.current
	teamIdx := s.teamIndex
	if s.reviewing {
		target = s.reviewIndex
		teamIdx = s.reviewIndex % len(s.teams)
	}

	team := &s.teams[teamIdx]
	team.Score = round1(team.Score + result.Score)
	if result.Correct {
		team.CorrectCount++
	} else {
		team.WrongCount++
	}

	answer := domain.Answer{Answered: true, OptionIndex: -1}
	if result.OptionIndex != nil {
		answer.OptionIndex = *result.OptionIndex
	} else {
		answer.Text = result.Text
	}
	s.answers[target] = answer

	if !s.reviewing {
		s.answered = true
		if s.cfg != nil && s.cfg.TTS.Enabled && s.narrator != nil {
			s.narrator.Speak(feedbackPhrase(result.Score), s.cfg.TTS, nil)
		}
	}
}

// AnswerFreeResponse sends a typed answer to the provider for grading, then
// applies the verdict as a normal submission. AI-only: requires a credential.
func (s *Session) AnswerFreeResponse(ctx context.Context, text string) (domain.Evaluation, error) {
	s.mu.Lock()
	if err := s.inputBlockedLocked(); err != nil {
		s.mu.Unlock()
		return domain.Evaluation{}, err
	}
	if s.quiz == nil {
		s.mu.Unlock()
		return domain.Evaluation{}, domain.ErrNoQuiz
	}
	if s.provider == nil || !s.provider.Ready() {
		s.mu.Unlock()
		return domain.Evaluation{}, domain.ErrMissingCredential
	}
	target := s.current
	if s.reviewing {
		target = s.reviewIndex
	}
	question := s.quiz.Questions[target]
	epoch := s.epoch
	s.mu.Unlock()

	eval, err := s.provider.EvaluateFreeResponse(ctx, question, text)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return domain.Evaluation{}, nil
	}
	if err != nil {
		s.applyFailureLocked(err)
		s.broadcastLocked()
		s.mu.Unlock()
		return domain.Evaluation{}, err
	}
	s.mu.Unlock()

	return eval, s.SubmitAnswer(domain.AnswerResult{
		Score:   eval.Score,
		Correct: eval.Correct,
		Text:    text,
	})
}

// UseHint spends one unit of the shared hint budget and attributes the use to
// the active team. An unlimited (-1) budget is never decremented.
func (s *Session) UseHint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inputBlockedLocked(); err != nil {
		return err
	}
	if s.hintsRemaining == 0 {
		return domain.ErrHintsExhausted
	}
	if s.hintsRemaining > 0 {
		s.hintsRemaining--
	}
	if len(s.teams) > 0 {
		s.teams[s.teamIndex].HintsUsed++
	}
	s.broadcastLocked()
	return nil
}

// AskAbout forwards a player question about the current quiz question to the
// provider. AI-only: requires a credential.
func (s *Session) AskAbout(ctx context.Context, query string) (string, error) {
	question, err := s.CurrentQuestion()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.provider == nil || !s.provider.Ready() {
		s.mu.Unlock()
		return "", domain.ErrMissingCredential
	}
	s.mu.Unlock()
	return s.provider.AskAbout(ctx, question, query)
}

// Advance moves to the next question, the round summary at a round boundary,
// or FINISHED after the last question. Rotates the active team in team mode.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inputBlockedLocked(); err != nil {
		return err
	}
	if s.state != StatePlaying || s.quiz == nil || s.cfg == nil {
		return domain.ErrInvalidTransition
	}
	if s.narrator != nil {
		s.narrator.Stop()
	}

	next := s.current + 1
	total := len(s.quiz.Questions)

	if next < total && s.cfg.QuestionsPerRound > 0 && next%s.cfg.QuestionsPerRound == 0 {
		s.state = StateRoundSummary
		s.broadcastLocked()
		return nil
	}
	if next < total {
		s.current = next
		if s.cfg.TeamMode {
			s.teamIndex = (s.teamIndex + 1) % len(s.teams)
		}
		s.resetTimerLocked()
		s.speakQuestionLocked()
		s.broadcastLocked()
		return nil
	}

	s.state = StateFinished
	s.reviewing = false
	s.reviewIndex = 0
	s.broadcastLocked()
	return nil
}

// NextRound leaves the round summary into the next pre-round countdown.
func (s *Session) NextRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inputBlockedLocked(); err != nil {
		return err
	}
	if s.state != StateRoundSummary {
		return domain.ErrInvalidTransition
	}
	if s.cfg.TeamMode {
		s.teamIndex = (s.teamIndex + 1) % len(s.teams)
	}
	s.round++
	s.current++
	s.resetTimerLocked()
	s.state = StateCountdown
	s.countdown = s.settings.CountdownStart
	s.broadcastLocked()
	return nil
}

// StartReview enters post-game review at the first question.
func (s *Session) StartReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished {
		return domain.ErrInvalidTransition
	}
	s.reviewing = true
	s.reviewIndex = 0
	s.broadcastLocked()
	return nil
}

// SetReviewIndex jumps review to a specific question.
func (s *Session) SetReviewIndex(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reviewing {
		return domain.ErrInvalidTransition
	}
	if s.quiz == nil || index < 0 || index >= len(s.quiz.Questions) {
		return domain.ErrQuestionIndex
	}
	s.reviewIndex = index
	s.broadcastLocked()
	return nil
}

// StopReview leaves review mode.
func (s *Session) StopReview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewing = false
	s.broadcastLocked()
}

func (s *Session) resetTimerLocked() {
	s.timeLeft = s.timeLimit
	s.answered = false
}

// speakQuestionLocked schedules the auto-read narration for the active
// question when enabled. Any previous narration is cancelled first.
func (s *Session) speakQuestionLocked() {
	if s.narrator == nil || s.cfg == nil || s.quiz == nil {
		return
	}
	if !s.cfg.TTS.Enabled || !s.cfg.TTS.AutoRead {
		return
	}
	if s.current >= len(s.quiz.Questions) {
		return
	}
	s.narrator.Stop()
	intro := ""
	if s.cfg.TeamMode && len(s.teams) > 0 {
		intro = s.teams[s.teamIndex].Name
	}
	question := s.quiz.Questions[s.current]
	s.narrator.Speak(ReadAloudText(question, intro), s.cfg.TTS, question.Audio)
}
