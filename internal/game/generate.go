package game

import (
	"context"

	"quiz-session-service/internal/apierror"
	"quiz-session-service/internal/domain"

	"github.com/google/uuid"
)

// Generate requests fresh quiz content from the provider. Team, timer, and
// hint state for the new session is reset before the provider call resolves,
// so a stale in-flight fetch from a previous session cannot corrupt this one.
// On success the session moves to READY_CHECK; on failure it stays in SETUP
// with the error classified.
func (s *Session) Generate(ctx context.Context, cfg domain.QuizConfig) error {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return domain.ErrOperationInFlight
	}
	if s.provider == nil || !s.provider.Ready() {
		detail := apierror.MissingCredential()
		s.errDetail = &detail
		s.broadcastLocked()
		s.mu.Unlock()
		return domain.ErrMissingCredential
	}
	s.generating = true
	epoch := s.beginSessionLocked(cfg)
	history := append([]string(nil), s.usedTopics...)
	s.broadcastLocked()
	s.mu.Unlock()

	exclusions := s.buildExclusions(ctx, history)
	quiz, err := s.provider.GenerateQuiz(ctx, cfg, exclusions)
	if err == nil && narrationWanted(cfg.TTS) {
		s.prerenderAudio(ctx, quiz.Questions, cfg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if s.epoch != epoch {
		return nil // session was reset while the fetch was in flight
	}
	if err != nil {
		s.applyFailureLocked(err)
		s.broadcastLocked()
		return err
	}

	quiz.Theme = cfg.Topic
	quiz.SubTopic = cfg.SubTopic
	s.quiz = &quiz
	s.recordKeywordsLocked(quiz.Keywords)
	s.state = StateReadyCheck
	s.broadcastLocked()

	if s.library != nil {
		// community save is best-effort and must not block play; the clone
		// keeps the saved document stable while the live quiz gets questions
		// replaced in place
		saved := quiz.Clone()
		go func() {
			_ = s.library.SaveQuiz(context.Background(), saved)
		}()
	}
	return nil
}

// GeneratePrebuilt pulls a random quiz from the community library instead of
// the AI provider, slicing it to the configured count. No credential needed.
func (s *Session) GeneratePrebuilt(ctx context.Context, cfg domain.QuizConfig) error {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return domain.ErrOperationInFlight
	}
	if s.library == nil {
		s.mu.Unlock()
		return domain.ErrQuizNotFound
	}
	s.generating = true
	epoch := s.beginSessionLocked(cfg)
	s.broadcastLocked()
	s.mu.Unlock()

	quiz, err := s.library.RandomQuiz(ctx, cfg.Topic, cfg.SubTopic)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.applyFailureLocked(err)
		s.broadcastLocked()
		return err
	}

	if cfg.Count > 0 && cfg.Count < len(quiz.Questions) {
		quiz.Questions = quiz.Questions[:cfg.Count]
	}
	s.cfg.Count = len(quiz.Questions)
	s.quiz = &quiz
	s.state = StateReadyCheck
	s.broadcastLocked()
	return nil
}

// beginSessionLocked snapshots the config and resets per-session state ahead
// of the async content fetch. Returns the epoch guarding the fetch.
func (s *Session) beginSessionLocked(cfg domain.QuizConfig) uint64 {
	s.epoch++
	s.state = StateSetup
	s.errDetail = nil
	s.quiz = nil
	s.answers = nil
	snapshot := cfg
	s.cfg = &snapshot
	s.timeLimit = cfg.TimeLimit
	s.timeLeft = cfg.TimeLimit
	s.hintsRemaining = cfg.MaxHints
	s.cooldown = 0
	s.teams = buildTeams(cfg)
	return s.epoch
}

func buildTeams(cfg domain.QuizConfig) []domain.Team {
	if !cfg.TeamMode || len(cfg.TeamNames) == 0 {
		return []domain.Team{{ID: "solo", Name: "You", Color: soloColor}}
	}
	teams := make([]domain.Team, 0, len(cfg.TeamNames))
	for i, name := range cfg.TeamNames {
		teams = append(teams, domain.Team{
			ID:    uuid.NewString(),
			Name:  name,
			Color: teamColors[i%len(teamColors)],
		})
	}
	return teams
}

// buildExclusions merges this session's topic history with the shared global
// keyword set, deduplicated, history first.
func (s *Session) buildExclusions(ctx context.Context, history []string) []string {
	var global []string
	if s.library != nil {
		if kw, err := s.library.GlobalKeywords(ctx, s.settings.GlobalKeywordFetch); err == nil {
			global = kw
		}
	}
	seen := make(map[string]struct{}, len(history)+len(global))
	out := make([]string, 0, len(history)+len(global))
	for _, kw := range append(history, global...) {
		if _, ok := seen[kw]; ok || kw == "" {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// recordKeywordsLocked pushes keywords most-recent-first into the rolling
// exclusion history, capped at the configured limit.
func (s *Session) recordKeywordsLocked(keywords []string) {
	if len(keywords) == 0 {
		return
	}
	s.usedTopics = append(append([]string(nil), keywords...), s.usedTopics...)
	if limit := s.settings.KeywordHistoryLimit; len(s.usedTopics) > limit {
		s.usedTopics = s.usedTopics[:limit]
	}
}

// prerenderAudio asks the provider for per-question narration payloads.
// Failures are tolerated; playback falls back to on-demand synthesis.
func (s *Session) prerenderAudio(ctx context.Context, questions []domain.Question, cfg domain.QuizConfig) {
	names := teamNamesFor(cfg)
	for i := range questions {
		intro := ""
		if len(names) > 0 {
			intro = names[i%len(names)]
		}
		audio, err := s.provider.SynthesizeSpeech(ctx, ReadAloudText(questions[i], intro), cfg.TTS)
		if err == nil && len(audio) > 0 {
			questions[i].Audio = audio
		}
	}
}

func teamNamesFor(cfg domain.QuizConfig) []string {
	if !cfg.TeamMode {
		return nil
	}
	return cfg.TeamNames
}

func narrationWanted(tts domain.TTSConfig) bool {
	return tts.Enabled && tts.Engine == domain.EngineAI
}
