package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ZanzyTHEbar/ragchat/ragchat/chat"
	"github.com/ZanzyTHEbar/ragchat/ragchat/chat/adapters"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/ZanzyTHEbar/ragchat/ragchat/db"
	"github.com/ZanzyTHEbar/ragchat/ragchat/llm"
	"github.com/ZanzyTHEbar/ragchat/ragchat/memory"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
	"github.com/rs/zerolog"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	conn     *sql.DB
	store    *memory.NodeStore
	index    *memory.FlatIndex
	gateways llm.Gateways
	factory  *chat.Factory
	ingester *memory.Ingester
	deps     chat.Dependencies
}

// newApp opens the node store, loads the index and builds the gateways.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	conn, err := db.Connect(ctx, cfg.Memory.DSN, logger.With().Str("component", "db").Logger())
	if err != nil {
		return nil, err
	}
	if err := memory.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	gateways, err := llm.New(ctx, cfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	store := memory.NewNodeStore(conn)
	index := memory.NewFlatIndex(gateways.Embedder.Dimensions())
	if err := index.Load(ctx, store); err != nil {
		conn.Close()
		return nil, fmt.Errorf("load index: %w", err)
	}
	logger.Debug().Int("nodes", index.Len()).Msg("Vector index loaded")

	factory := chat.NewFactory(cfg, logger.With().Str("component", "chat").Logger())

	retriever := memory.NewVectorRetriever(gateways.Embedder, index, store,
		memory.WithTopK(cfg.Memory.K),
		memory.WithRetrieverLogger(logger.With().Str("component", "retriever").Logger()),
	)

	qaPrompt, err := prompts.FromText("text_qa", cfg.Chat.QAPrompt, prompts.TextQA)
	if err != nil {
		conn.Close()
		return nil, err
	}
	completer := factory.CreateCompleter(gateways.Completer)
	queryEngine := memory.NewRetrieverQueryEngine(retriever, adapters.NewCompleterPredictor(completer), qaPrompt)

	ingester := memory.NewIngester(gateways.Embedder, store, index, memory.IngesterConfig{
		ChunkSize:    cfg.Memory.ChunkSize,
		ChunkOverlap: cfg.Memory.ChunkOverlap,
		BatchSize:    cfg.Embedding.BatchSize,
		Concurrency:  cfg.Memory.IngestConcurrency,
	}, logger.With().Str("component", "ingest").Logger())

	return &app{
		cfg:      cfg,
		logger:   logger,
		conn:     conn,
		store:    store,
		index:    index,
		gateways: gateways,
		factory:  factory,
		ingester: ingester,
		deps: chat.Dependencies{
			Completer:   gateways.Completer,
			Retriever:   retriever,
			QueryEngine: queryEngine,
		},
	}, nil
}

func (a *app) engine() (chat.Engine, error) {
	return a.factory.CreateEngine(a.deps)
}

func (a *app) Close() error {
	return a.conn.Close()
}
