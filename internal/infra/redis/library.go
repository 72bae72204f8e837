// Package redis backs the community quiz library with Redis. Quizzes are
// stored as JSON documents indexed by theme and sub-topic sets; the shared
// keyword pool is a trimmed list fed on every save.
package redis

import (
	"context"
	"encoding/json"

	"quiz-session-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keywordWindow bounds the keyword list so the pool reflects recent saves.
const keywordWindow = 200

// Library implements the community library on a Redis client.
type Library struct {
	client *redis.Client
}

func NewLibrary(client *redis.Client) *Library {
	return &Library{client: client}
}

// SaveQuiz stores the quiz document and updates the theme indexes and the
// shared keyword pool in one pipeline.
func (l *Library) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	id := uuid.NewString()
	doc, err := json.Marshal(quiz)
	if err != nil {
		return err
	}

	pipe := l.client.Pipeline()
	pipe.Set(ctx, quizKey(id), doc, 0)
	pipe.SAdd(ctx, allQuizzesKey, id)
	if quiz.Theme != "" {
		pipe.SAdd(ctx, themesKey, quiz.Theme)
		pipe.SAdd(ctx, themeKey(quiz.Theme), id)
		if quiz.SubTopic != "" {
			pipe.SAdd(ctx, subTopicsKey(quiz.Theme), quiz.SubTopic)
			pipe.SAdd(ctx, subTopicKey(quiz.Theme, quiz.SubTopic), id)
		}
	}
	for _, kw := range quiz.Keywords {
		if kw != "" {
			pipe.LPush(ctx, keywordsKey, kw)
		}
	}
	pipe.LTrim(ctx, keywordsKey, 0, keywordWindow-1)
	_, err = pipe.Exec(ctx)
	return err
}

// GlobalKeywords returns up to max distinct keywords, newest first.
func (l *Library) GlobalKeywords(ctx context.Context, max int) ([]string, error) {
	raw, err := l.client.LRange(ctx, keywordsKey, 0, keywordWindow-1).Result()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, kw := range raw {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

// RandomQuiz draws a random quiz id from the narrowest matching index and
// loads its document.
func (l *Library) RandomQuiz(ctx context.Context, theme, subTopic string) (domain.Quiz, error) {
	key := allQuizzesKey
	switch {
	case theme != "" && subTopic != "":
		key = subTopicKey(theme, subTopic)
	case theme != "":
		key = themeKey(theme)
	}

	id, err := l.client.SRandMember(ctx, key).Result()
	if err == redis.Nil || id == "" {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, err
	}

	doc, err := l.client.Get(ctx, quizKey(id)).Result()
	if err == redis.Nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(doc), &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// AvailableThemes lists every stored theme with its sub-topics.
func (l *Library) AvailableThemes(ctx context.Context) (map[string][]string, error) {
	themeNames, err := l.client.SMembers(ctx, themesKey).Result()
	if err != nil {
		return nil, err
	}
	themes := make(map[string][]string, len(themeNames))
	for _, theme := range themeNames {
		subTopics, err := l.client.SMembers(ctx, subTopicsKey(theme)).Result()
		if err != nil {
			return nil, err
		}
		themes[theme] = subTopics
	}
	return themes, nil
}

const (
	allQuizzesKey = "library:quizzes"
	themesKey     = "library:themes"
	keywordsKey   = "library:keywords"
)

func quizKey(id string) string {
	return "library:quiz:" + id
}

func themeKey(theme string) string {
	return "library:theme:" + theme
}

func subTopicsKey(theme string) string {
	return "library:theme:" + theme + ":subtopics"
}

func subTopicKey(theme, subTopic string) string {
	return "library:theme:" + theme + ":" + subTopic
}
