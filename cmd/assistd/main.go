package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/dentaware/assistd/internal/adapters/http"
	"github.com/dentaware/assistd/internal/adapters/llm"
	firestorestore "github.com/dentaware/assistd/internal/adapters/storage/firestore"
	memstore "github.com/dentaware/assistd/internal/adapters/storage/memory"
	sqlitecache "github.com/dentaware/assistd/internal/adapters/storage/sqlite"
	"github.com/dentaware/assistd/internal/app/assistant"
	"github.com/dentaware/assistd/internal/app/orgs"
	"github.com/dentaware/assistd/internal/app/summary"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/config"
	"github.com/dentaware/assistd/internal/domain"
	"github.com/dentaware/assistd/internal/observability"
)

func main() {
	ctx := context.Background()
	log := observability.WithFields("component", "main")

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Completion backend.
	var client domain.CompletionClient
	switch cfg.LLMBackend {
	case "openai":
		log.Info("using OpenAI completion backend", "model", cfg.ModelName)
		client = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName)
	case "vertex":
		log.Info("using Vertex completion backend", "project", cfg.GCPProjectID)
		client, err = llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Error("failed to initialize Vertex client", "error", err)
			os.Exit(1)
		}
	default:
		log.Info("using mock completion backend")
		client = llm.NewMockClient()
	}

	// Remote document store.
	var remote domain.RemoteStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using Firestore remote store", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Error("failed to initialize Firestore store", "error", err)
			os.Exit(1)
		}
		defer fs.Close()
		remote = fs
	default:
		log.Info("using in-memory remote store")
		remote = memstore.NewRemoteStore()
	}

	// Local persistent cache.
	cache, err := sqlitecache.NewCache(cfg.CachePath)
	if err != nil {
		log.Error("failed to open local cache", "error", err, "path", cfg.CachePath)
		os.Exit(1)
	}
	defer cache.Close()

	notify := observability.NewLogNotifier()
	store := chatstore.New(cache, remote, notify)
	defer store.Close()

	orgSvc := orgs.NewService(remote, notify)

	// With a default user configured, behave like a logged-in session:
	// pull that scope's chats, then replicate after every mutation.
	if cfg.DefaultUserID != "" {
		scope, err := orgSvc.ResolveScope(ctx, domain.UserID(cfg.DefaultUserID))
		if err != nil {
			log.Error("failed to resolve session scope", "error", err)
			os.Exit(1)
		}
		if err := store.PullRemote(ctx, scope); err != nil {
			log.Warn("initial pull from remote store failed", "error", err)
		}
		store.AttachSession(scope)
		log.Info("session attached", "user", scope.UserID, "org", scope.OrgID)
	}

	assistantSvc := assistant.NewService(store, client, notify)
	summarySvc := summary.NewService(store, client)

	handler := httpadapter.NewServer(client, assistantSvc, summarySvc, orgSvc, remote)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("assistd API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// Let in-flight sync pushes land before the process exits.
	store.Close()
}
