// Command scan runs the extraction pipeline on local image files and prints
// one JSON result per file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/vision"
)

type scanOutput struct {
	File   string                 `json:"file"`
	Result model.ExtractionResult `json:"result"`
}

func main() {
	provider := flag.String("provider", "", "vision provider (gemini, openai); defaults to VISION_PROVIDER")
	policy := flag.String("policy", "", "extraction policy (retrying, single); defaults to VISION_POLICY")
	verbose := flag.Bool("v", false, "log pipeline events to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: scan [flags] image...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *provider != "" {
		cfg.Vision.Provider = *provider
	}
	if *policy != "" {
		cfg.Vision.Policy = *policy
	}

	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(out, nil))

	orch, err := vision.NewOrchestrator(cfg.Vision, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, path := range flag.Args() {
		res := orch.ExtractCardInfo(context.Background(), path)
		if !res.Success {
			failed++
		}
		_ = enc.Encode(scanOutput{File: path, Result: res})
	}
	if failed > 0 {
		os.Exit(1)
	}
}
