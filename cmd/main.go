package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"lms-chatbot/handler"
	"lms-chatbot/internal/faq"
	"lms-chatbot/internal/integrations/openai"
	"lms-chatbot/internal/integrations/paramstore"
	"lms-chatbot/internal/repository"
	"lms-chatbot/internal/retrieval"
	"lms-chatbot/internal/session"
	"lms-chatbot/internal/usecase"
	"lms-chatbot/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	addr := envStr("ADDR", ":8000")
	faqPath := envStr("FAQ_PATH", "faq.json")
	faqTable := os.Getenv("FAQ_TABLE")
	paramPrefix := strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/")
	model := envStr("OPENAI_MODEL", "gpt-4o-mini")
	maxTurns := envInt("MAX_TURNS", session.DefaultMaxTurns)
	maxSessions := envInt("MAX_SESSIONS", session.DefaultMaxSessions)
	origins := envList("ALLOWED_ORIGINS", []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- AWS SDK config (only when a remote corpus or SSM key is used) ----
	var dynamoClient *awsdynamodb.Client
	var ssmClient *awsssm.Client
	if faqTable != "" || paramPrefix != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		if faqTable != "" {
			dynamoClient = awsdynamodb.NewFromConfig(cfg)
		}
		if paramPrefix != "" {
			ssmClient = awsssm.NewFromConfig(cfg)
		}
	}

	// ---- FAQ corpus ----
	var source faq.Source
	if faqTable != "" {
		dynamoSource, err := repository.NewFaqSource(dynamoClient, faqTable)
		if err != nil {
			logger.Error("failed to create faq table source", "err", err)
			os.Exit(1)
		}
		source = dynamoSource
	} else {
		fileSource, err := faq.NewFileSource(faqPath)
		if err != nil {
			logger.Error("failed to create faq file source", "err", err)
			os.Exit(1)
		}
		source = fileSource
	}
	faqStore := faq.NewStore(source, logger)
	if _, err := faqStore.Reload(ctx); err != nil {
		logger.Warn("starting with empty faq corpus", "err", err)
	}

	// ---- Language-model gateway ----
	var keyGetter openai.Getter
	keyParam := "OPENAI_API_KEY"
	if paramPrefix != "" {
		ps, err := paramstore.New(ssmClient)
		if err != nil {
			logger.Error("failed to create paramstore client", "err", err)
			os.Exit(1)
		}
		keyGetter = ps
		keyParam = paramPrefix + "/openai-api-key"
	} else {
		keyGetter = paramstore.Static(os.Getenv("OPENAI_API_KEY"))
	}
	gateway, err := openai.NewClient(keyGetter, keyParam, model)
	if err != nil {
		logger.Error("failed to create openai client", "err", err)
		os.Exit(1)
	}

	// ---- Core services ----
	sessions := session.NewStore(maxTurns, maxSessions)
	retriever := retrieval.NewRetriever(faqStore)
	chatService, err := usecase.NewChatService(retriever, sessions, gateway, logger)
	if err != nil {
		logger.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService, faqStore, sessions, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	// ---- Corpus hot reload (file source only) ----
	if faqTable == "" {
		w, err := watcher.New(faqPath, func(ctx context.Context) {
			_, _ = faqStore.Reload(ctx)
		}, logger)
		if err != nil {
			logger.Error("failed to create faq watcher", "err", err)
			os.Exit(1)
		}
		defer func() { _ = w.Close() }()
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("faq watcher stopped", "err", err)
			}
		}()
	}

	srv := handler.NewServer(addr, h.Routes(origins), logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func envStr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
