package game

import (
	"context"

	"quiz-session-service/internal/domain"

	"github.com/google/uuid"
)

// ReplaceQuestion swaps the question at index for a freshly generated one at
// one difficulty tier above the session's (capped at hard), reversing any
// score effect the old question had so it can be attempted again. On failure
// the question and all scores are left untouched.
func (s *Session) ReplaceQuestion(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.quiz == nil || s.cfg == nil {
		s.mu.Unlock()
		return domain.ErrNoQuiz
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		s.mu.Unlock()
		return domain.ErrQuestionIndex
	}
	if s.replacing {
		s.mu.Unlock()
		return domain.ErrOperationInFlight
	}
	if s.cooldown > 0 {
		s.mu.Unlock()
		return domain.ErrCooldownActive
	}
	if s.provider == nil || !s.provider.Ready() {
		s.mu.Unlock()
		return domain.ErrMissingCredential
	}
	s.replacing = true
	oldQuestion := s.quiz.Questions[index]
	escalated := *s.cfg
	escalated.Difficulty = escalated.Difficulty.Next()
	epoch := s.epoch
	s.mu.Unlock()

	replacement, err := s.fetchReplacement(ctx, escalated, oldQuestion.Prompt, index)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replacing = false
	if s.epoch != epoch {
		return nil // session was reset; discard the late result
	}
	if err != nil {
		s.applyFailureLocked(err)
		s.broadcastLocked()
		return err
	}

	s.revertScoreLocked(index, oldQuestion)
	s.quiz.Questions[index] = replacement
	if index < len(s.answers) {
		s.answers[index] = domain.Answer{}
	}
	s.voided[index] = struct{}{}
	s.timeLeft = s.timeLimit
	s.broadcastLocked()
	return nil
}

// SkipQuestion replaces the active question before it is answered, escalating
// difficulty one tier. Scores are untouched; the player answers the new
// question against a fresh timer.
func (s *Session) SkipQuestion(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePlaying || s.quiz == nil || s.cfg == nil {
		s.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if s.skipping {
		s.mu.Unlock()
		return domain.ErrOperationInFlight
	}
	if s.cooldown > 0 {
		s.mu.Unlock()
		return domain.ErrCooldownActive
	}
	if s.answered {
		s.mu.Unlock()
		return domain.ErrAlreadyAnswered
	}
	if s.provider == nil || !s.provider.Ready() {
		s.mu.Unlock()
		return domain.ErrMissingCredential
	}
	if s.narrator != nil {
		s.narrator.Stop()
	}
	s.skipping = true
	index := s.current
	oldQuestion := s.quiz.Questions[index]
	escalated := *s.cfg
	escalated.Difficulty = escalated.Difficulty.Next()
	epoch := s.epoch
	s.mu.Unlock()

	replacement, err := s.fetchReplacement(ctx, escalated, oldQuestion.Prompt, index)

	s.mu.Lock()
	defer s.mu.Unlock()
	// clear the in-flight flag in every outcome so a retry stays possible;
	// on quota failures the cooldown itself gates the retry
	s.skipping = false
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.applyFailureLocked(err)
		s.broadcastLocked()
		return err
	}

	s.quiz.Questions[index] = replacement
	s.resetTimerLocked()
	s.voided[index] = struct{}{}
	s.speakQuestionLocked()
	s.broadcastLocked()
	return nil
}

// fetchReplacement asks the provider for a single substitute question that
// avoids repeating the original text, pre-rendering its narration when the
// session uses the AI voice.
func (s *Session) fetchReplacement(ctx context.Context, cfg domain.QuizConfig, avoidText string, index int) (domain.Question, error) {
	question, err := s.provider.GenerateReplacement(ctx, cfg, avoidText)
	if err != nil {
		return domain.Question{}, err
	}
	if question.ID == "" {
		question.ID = "sub-" + uuid.NewString()
	}
	if narrationWanted(cfg.TTS) {
		intro := ""
		if names := teamNamesFor(cfg); len(names) > 0 {
			intro = names[index%len(names)]
		}
		if audio, aerr := s.provider.SynthesizeSpeech(ctx, ReadAloudText(question, intro), cfg.TTS); aerr == nil {
			question.Audio = audio
		}
	}
	return question, nil
}

// revertScoreLocked reverses exactly the score effect the old question had on
// its owning team: one correct increment and one point for a correct answer,
// one wrong increment for an incorrect one, nothing when unanswered. Team
// ownership is keyed the same way review submissions attribute it.
func (s *Session) revertScoreLocked(index int, oldQuestion domain.Question) {
	if index >= len(s.answers) || len(s.teams) == 0 {
		return
	}
	previous := s.answers[index]
	if !previous.Answered {
		return
	}

	team := &s.teams[index%len(s.teams)]
	wasCorrect := len(oldQuestion.Options) > 0 &&
		previous.Text == "" &&
		previous.OptionIndex == oldQuestion.CorrectAnswerIndex

	if wasCorrect {
		team.Score = round1(team.Score - 1)
		if team.CorrectCount > 0 {
			team.CorrectCount--
		}
		return
	}
	if team.WrongCount > 0 {
		team.WrongCount--
	}
}
