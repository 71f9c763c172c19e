package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overlay-timeline-service/internal/app"
	"overlay-timeline-service/internal/config"
	"overlay-timeline-service/internal/domain"
	"overlay-timeline-service/internal/infra/memory"
	pgstore "overlay-timeline-service/internal/infra/postgres"
	redisstore "overlay-timeline-service/internal/infra/redis"
	transport "overlay-timeline-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the overlay preview server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
	projectTTL := config.Duration(cfg.Project.TTL, 10*time.Minute)
	autosave := config.Duration(cfg.Autosave.Interval, 10*time.Second)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Durable tier: postgres when configured, else an in-memory demo store
	// seeded with a sample project.
	var durable interface {
		memory.ProjectLoader
		app.ProjectSaver
	} = memory.NewProjectStore(sampleProjects())
	if pool != nil {
		durable = pgstore.NewProjectStore(pool)
	}

	var projects app.ProjectRepository
	var saver app.ProjectSaver
	if redisClient != nil {
		store := redisstore.NewProjectStore(redisClient, durable, projectTTL)
		projects = store
		saver = store
	} else {
		projects = memory.NewProjectRepository(durable, projectTTL)
		saver = durable
	}

	var previews app.PreviewRepository
	if redisClient != nil {
		previews = redisstore.NewPreviewStore(redisClient, redisTTL)
	} else {
		previews = memory.NewPreviewStore()
	}
	service := app.NewPreviewService(previews, projects, saver, autosave)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting overlay preview service on :%s", finalPort)
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

// sampleProjects seeds demo mode with one project containing a timed text
// overlay and a question trigger.
func sampleProjects() map[string]domain.Project {
	return map[string]domain.Project{
		"demo": {
			ID: "demo",
			Elements: []domain.InteractiveElement{
				{
					ID:        "el-1",
					Type:      domain.TypeText,
					Content:   "Welcome!",
					X:         40,
					Y:         40,
					Timestamp: 0,
					EndTime:   8,
					ZIndex:    1,
				},
				{
					ID:            "el-2",
					Type:          domain.TypeQuestion,
					Content:       "What is 2 + 2?",
					X:             120,
					Y:             120,
					Timestamp:     10,
					EndTime:       20,
					ZIndex:        2,
					QuestionType:  "mcq",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
				},
			},
			Timestamp: time.Now(),
		},
	}
}
