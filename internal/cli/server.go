package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizlab-service/internal/app"
	"quizlab-service/internal/config"
	redisstore "quizlab-service/internal/infra/redis"
	"quizlab-service/internal/infra/sqlite"
	"quizlab-service/internal/storage"
	transport "quizlab-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	finalPort := config.StringOr(portFlag, config.StringOr(cfg.Server.Port, "8080"))
	baseURL := config.StringOr(cfg.Server.BaseURL, "http://localhost:"+finalPort)

	local, err := sqlite.Open(config.StringOr(cfg.SQLite.Path, "quizlab.db"))
	if err != nil {
		return err
	}
	defer local.Close()
	if err := local.Migrate(ctx); err != nil {
		return err
	}

	// The shared store is optional; when configured, every call tries it
	// first and silently retries on the local store.
	var provider storage.Provider = local
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		provider = storage.NewFailover(redisstore.NewStore(redisClient), local)
	}

	quizzes := app.NewQuizService(provider, baseURL)
	wsHandler := transport.NewWSHandler(quizzes)
	dashboard := transport.NewDashboardHandler(quizzes, provider)
	api := transport.NewAPI(quizzes, config.IntOr(cfg.Quiz.DefaultTimeLimitMinutes, 5))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/ws/dashboard", dashboard.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizlab service on :%s", finalPort)
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
