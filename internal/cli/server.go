package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/game"
	"quiz-session-service/internal/infra/memory"
	pglibrary "quiz-session-service/internal/infra/postgres"
	redislibrary "quiz-session-service/internal/infra/redis"
	transport "quiz-session-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	library, err := buildLibrary(ctx, cfg)
	if err != nil {
		return err
	}

	provider := memory.NewStaticProvider(sampleQuestionBank())
	settings := cfg.GameSettings()
	sessions := func() *game.Session {
		return game.NewSession(provider, memory.NewNarrator(), library, settings)
	}

	tick := config.TTLDuration(cfg.Game.TickInterval, time.Second)
	wsHandler := transport.NewWSHandler(sessions, tick)
	themesHandler := transport.NewThemesHandler(library)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/themes", themesHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildLibrary picks the community library backend: Postgres when configured,
// then Redis, then in-process memory. Shared read paths go through the TTL
// cache in every case.
func buildLibrary(ctx context.Context, cfg config.Config) (game.Library, error) {
	ttl := config.TTLDuration(cfg.Library.TTL, 10*time.Minute)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return memory.NewCachedLibrary(pglibrary.NewLibrary(pool), ttl), nil
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return memory.NewCachedLibrary(redislibrary.NewLibrary(client), ttl), nil
	}
	return memory.NewLibrary(), nil
}

// sampleQuestionBank seeds the static provider; swap it for an AI-backed
// provider to generate content on demand.
func sampleQuestionBank() []domain.Question {
	return []domain.Question{
		{
			Prompt:             "What is the largest planet in the solar system?",
			Options:            []string{"Earth", "Jupiter", "Saturn", "Neptune"},
			CorrectAnswerIndex: 1,
			Hint:               "It is a gas giant named after the king of the Roman gods.",
			Explanation:        "Jupiter is more than twice as massive as all other planets combined.",
		},
		{
			Prompt:             "Which element has the chemical symbol O?",
			Options:            []string{"Gold", "Osmium", "Oxygen", "Oganesson"},
			CorrectAnswerIndex: 2,
			Hint:               "You breathe it.",
			Explanation:        "O is oxygen, element number 8.",
		},
		{
			Prompt:             "In which year did the first human walk on the Moon?",
			Options:            []string{"1959", "1965", "1969", "1972"},
			CorrectAnswerIndex: 2,
			Hint:               "Late nineteen sixties.",
			Explanation:        "Apollo 11 landed on July 20, 1969.",
		},
		{
			Prompt:             "Which ocean is the deepest?",
			Options:            []string{"Atlantic", "Indian", "Arctic", "Pacific"},
			CorrectAnswerIndex: 3,
			Hint:               "It holds the Mariana Trench.",
			Explanation:        "The Pacific contains the Mariana Trench, nearly 11 km deep.",
		},
		{
			Prompt:             "Who painted the Mona Lisa?",
			Options:            []string{"Michelangelo", "Leonardo da Vinci", "Raphael", "Donatello"},
			CorrectAnswerIndex: 1,
			Hint:               "A Renaissance polymath from Vinci.",
			Explanation:        "Leonardo da Vinci painted it in the early 16th century.",
		},
		{
			Prompt:             "What is the capital of Australia?",
			Options:            []string{"Sydney", "Melbourne", "Canberra", "Perth"},
			CorrectAnswerIndex: 2,
			Hint:               "It is not the largest city.",
			Explanation:        "Canberra was purpose-built as the capital in 1913.",
		},
	}
}
