// Package postgres persists the community quiz library as JSONB documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-session-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// keywordWindow bounds how many recent saves contribute to the keyword pool.
const keywordWindow = 100

// Library implements the community library on a pgx connection pool.
type Library struct {
	pool *pgxpool.Pool
}

func NewLibrary(pool *pgxpool.Pool) *Library {
	return &Library{pool: pool}
}

func (l *Library) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	doc, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO library_quizzes (id, theme, sub_topic, keywords, data) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), quiz.Theme, quiz.SubTopic, quiz.Keywords, doc)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// GlobalKeywords collects distinct keywords from the most recent saves,
// newest first.
func (l *Library) GlobalKeywords(ctx context.Context, max int) ([]string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT keywords FROM library_quizzes ORDER BY created_at DESC LIMIT $1`, keywordWindow)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var out []string
	for rows.Next() {
		var keywords []string
		if err := rows.Scan(&keywords); err != nil {
			return nil, fmt.Errorf("scan keywords: %w", err)
		}
		for _, kw := range keywords {
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
	return out, rows.Err()
}

func (l *Library) RandomQuiz(ctx context.Context, theme, subTopic string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT data FROM library_quizzes
		 WHERE ($1 = '' OR theme = $1) AND ($2 = '' OR sub_topic = $2)
		 ORDER BY random() LIMIT 1`,
		theme, subTopic).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (l *Library) AvailableThemes(ctx context.Context) (map[string][]string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT DISTINCT theme, sub_topic FROM library_quizzes WHERE theme <> ''`)
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	defer rows.Close()

	themes := make(map[string][]string)
	for rows.Next() {
		var theme, subTopic string
		if err := rows.Scan(&theme, &subTopic); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		if _, ok := themes[theme]; !ok {
			themes[theme] = nil
		}
		if subTopic != "" {
			themes[theme] = append(themes[theme], subTopic)
		}
	}
	return themes, rows.Err()
}
