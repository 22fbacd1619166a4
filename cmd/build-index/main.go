package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/josinaldojr/talkdoc-rag/internal/app"
	"github.com/josinaldojr/talkdoc-rag/internal/config"
	"github.com/josinaldojr/talkdoc-rag/internal/ingest"
	"github.com/josinaldojr/talkdoc-rag/internal/logging"
	"github.com/josinaldojr/talkdoc-rag/internal/vectorstore"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	source, err := parseFlags(flag.CommandLine, cfg, os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	text, err := ingest.LoadPath(source)
	if err != nil {
		log.Fatal().Err(err).Str("source", source).Msg("failed to read source")
	}
	log.Info().Str("source", source).Int("chars", len(text)).Msg("source loaded")

	embedder, err := app.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load embedder")
	}

	w, closeWriter, err := app.NewWriter(ctx, cfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open index writer")
	}
	defer closeWriter()

	m, err := vectorstore.Build(ctx, w, embedder, text, source, cfg.Index.Collection)
	if err != nil {
		log.Fatal().Err(err).Msg("index build failed")
	}

	log.Info().
		Str("backend", cfg.Index.Backend).
		Str("path", cfg.Index.Path).
		Str("build_id", m.BuildID).
		Int("chunks", m.Chunks).
		Msg("index build complete")
}

// parseFlags overrides the index settings of cfg from args and returns the
// source path.
func parseFlags(fs *flag.FlagSet, cfg *config.Config, args []string) (string, error) {
	source := fs.String("source", cfg.Index.SourcePath, "source document (.pdf, .html, .md, .docx, .txt) or a directory of them")
	fs.StringVar(&cfg.Index.Path, "out", cfg.Index.Path, "index directory (chromem and sqlite backends)")
	fs.StringVar(&cfg.Index.Backend, "backend", cfg.Index.Backend, "index backend: chromem, pgvector or sqlite")
	fs.StringVar(&cfg.Index.Collection, "collection", cfg.Index.Collection, "collection name stored in the manifest")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *source, nil
}
