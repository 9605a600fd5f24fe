package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/service"
)

// app bundles what a workflow command needs. close releases the model client and
// the store.
type app struct {
	svc   *service.Service
	store db.Store
	close func()
}

// newApp connects the model client and the report store from appConfig.
func newApp(ctx context.Context) (*app, error) {
	cfg := appConfig

	client, err := llm.NewClient(ctx, llm.ClientOptions{
		Provider: llm.Provider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.Key(),
		Models:   cfg.LLM.Models,
		Backend:  cfg.LLM.Backend,
		Project:  cfg.LLM.Project,
		Location: cfg.LLM.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider, err)
	}
	delegate := llm.NewDelegate(client,
		llm.WithMaxAttempts(cfg.LLM.MaxAttempts),
		llm.WithBackoff(cfg.LLM.RetryBackoff),
		llm.WithDelegateLogger(appLogger),
	)

	store, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		_ = delegate.Close()
		return nil, err
	}

	appLogger.Debug("application ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("storage", cfg.Storage.Driver),
	)

	return &app{
		svc:   service.New(delegate, store, cfg, appLogger),
		store: store,
		close: func() {
			if store != nil {
				_ = store.Close()
			}
			_ = delegate.Close()
		},
	}, nil
}

// openStore opens only the report store, for the reports commands.
func openStore(ctx context.Context) (db.Store, error) {
	store, err := db.Open(ctx, appConfig.Storage)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("report storage is disabled; set storage.driver to sqlite or postgres")
	}
	return store, nil
}

// readResume extracts text from a PDF, DOCX or text file and checks its bounds.
func readResume(path string) (string, document.Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", document.KindUnknown, fmt.Errorf("file not found: %s", path)
		}
		return "", document.KindUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}

	kind, text, err := document.DetectAndExtract(path, data)
	if err != nil {
		return "", kind, err
	}
	if err := document.Validate(text); err != nil {
		return "", kind, fmt.Errorf("invalid resume %s: %w", path, err)
	}
	return text, kind, nil
}
