package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/josinaldojr/talkdoc-rag/internal/app"
	"github.com/josinaldojr/talkdoc-rag/internal/config"
	"github.com/josinaldojr/talkdoc-rag/internal/logging"
)

type askFunc func(ctx context.Context, query string) (string, error)

func main() {
	gated := flag.Bool("gated", false, "translate and classify input before answering")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	// keep the terminal readable; answers go to stdout
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logging.SetupWriter(os.Stderr, cfg.LogLevel, true)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise assistant")
	}
	defer a.Close()

	ask := askFunc(a.Service.AnswerQuery)
	if *gated {
		ask = func(ctx context.Context, q string) (string, error) {
			reply, err := a.Assistant.AskText(ctx, q)
			if err != nil {
				return "", err
			}
			return reply.Answer, nil
		}
	}

	run(ctx, os.Stdin, os.Stdout, ask)
}

// run answers one query per line until exit, quit or end of input.
func run(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) {
	fmt.Fprintln(out, "talkDOC medical assistant. Type 'exit' or 'quit' to leave.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "\nAsk a question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		q := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit":
			return
		}

		answer, err := ask(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\nAnswer:\n%s\n", answer)
	}
}
