package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/ai"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/config"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/embedcache"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/handler"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/job"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/middleware"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/repo"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/schedule"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "rcai",
		Short: "Rancho Cordova AI assistant backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the assistant server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, db)
		},
	}

	userAddCmd := &cobra.Command{
		Use:   "useradd <username> <password>",
		Short: "create a login for the assistant UI",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			users := repo.NewUserRepo(db)
			auth := service.NewAuthService(users, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
			user, err := auth.CreateUser(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			logutil.GetLogger(cmd.Context()).Info("user created", zap.String("id", user.ID), zap.String("username", user.Username))
			return nil
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest <chunks.json>",
		Short: "embed and load knowledge chunks into the vector index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, db, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, userAddCmd, ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sqlx.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	db, err := repo.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, nil
}

func runServer(cfg *config.Config, db *sqlx.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
	)

	userRepo := repo.NewUserRepo(db)
	knowledgeRepo := repo.NewKnowledgeRepo(db)
	analyticsRepo := repo.NewAnalyticsRepo(db)
	ticketRepo := repo.NewTicketRepo(db)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(db)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder, err := buildEmbedder(cfg, embedCacheRepo)
	if err != nil {
		return err
	}

	client := ai.NewClient(
		ai.NewGenerator(provider, cfg.AI.Model),
		embedder,
		ai.ClientConfig{
			Timeout:         time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
			EmbedRetries:    cfg.Chat.EmbedRetries,
			EmbedRetryDelay: time.Duration(cfg.Chat.EmbedRetryDelaySec) * time.Second,
		},
	)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	chatService := service.NewChatService(client, knowledgeRepo, analyticsRepo, ticketRepo, service.ChatConfig{
		TopK:          cfg.Chat.TopK,
		MaxSources:    cfg.Chat.MaxSources,
		ContextBudget: cfg.Chat.ContextBudget,
		MaxInputChars: cfg.Chat.MaxMessageChars,
	})

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Agents:    handler.NewAgentHandler(),
		Chat:      handler.NewChatHandler(chatService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Cache.EmbedMaxAgeDays), "30 3 * * *"); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	embedArgs := cfg.AI.EmbedData
	if embedArgs == nil {
		embedArgs = cfg.AI.Data
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, embedArgs)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Cache.EmbedLRUSize, time.Duration(cfg.Cache.EmbedLRUTTLMin)*time.Minute)
	return embedder, nil
}

type ingestChunk struct {
	Content   string `json:"content"`
	Source    string `json:"source"`
	AgentType string `json:"agent_type"`
}

func runIngest(ctx context.Context, cfg *config.Config, db *sqlx.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chunks file: %w", err)
	}
	var chunks []ingestChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("decode chunks file: %w", err)
	}

	knowledgeRepo := repo.NewKnowledgeRepo(db)
	embedder, err := buildEmbedder(cfg, repo.NewEmbeddingCacheRepo(db))
	if err != nil {
		return err
	}
	client := ai.NewClient(nil, embedder, ai.ClientConfig{
		Timeout:         time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		EmbedRetries:    cfg.Chat.EmbedRetries,
		EmbedRetryDelay: time.Duration(cfg.Chat.EmbedRetryDelaySec) * time.Second,
	})

	logger := logutil.GetLogger(ctx)
	inserted := 0
	for i, chunk := range chunks {
		content := strings.TrimSpace(chunk.Content)
		if content == "" {
			continue
		}
		agentType := model.AgentType(chunk.AgentType)
		if !agentType.Valid() {
			return fmt.Errorf("chunk %d: unknown agent_type %q", i, chunk.AgentType)
		}
		embedding, err := client.Embed(ctx, content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return fmt.Errorf("chunk %d: embed: %w", i, err)
		}
		if err := knowledgeRepo.Insert(ctx, &model.KnowledgeChunk{
			Content:   content,
			Source:    chunk.Source,
			AgentType: agentType,
			Embedding: embedding,
			Ctime:     time.Now().Unix(),
		}); err != nil {
			return fmt.Errorf("chunk %d: insert: %w", i, err)
		}
		inserted++
	}
	logger.Info("ingest finished", zap.Int("total", len(chunks)), zap.Int("inserted", inserted))
	return nil
}
