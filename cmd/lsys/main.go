package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/Conceptual-Machines/lsys-music-go/agents/composer"
	"github.com/Conceptual-Machines/lsys-music-go/agents/coordination"
	"github.com/Conceptual-Machines/lsys-music-go/audio"
	"github.com/Conceptual-Machines/lsys-music-go/config"
	"github.com/Conceptual-Machines/lsys-music-go/metrics"
	"github.com/Conceptual-Machines/lsys-music-go/ui"
)

func main() {
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpAndExit}
	opts, err := parseOptions(parser, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := metrics.InitSentry(cfg.SentryDSN, version); err != nil {
		log.Printf("⚠️  %v", err)
	}

	err = run(context.Background(), opts, cfg)
	metrics.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *Options, cfg *config.Config) error {
	switch opts.Command {
	case cmdRender:
		return render(ctx, opts, cfg)
	case cmdCompose:
		return compose(ctx, opts, cfg)
	case cmdExplore:
		return ui.Run(ui.NewSession(os.Stdout, cfg.MaxSymbols))
	}
	return fmt.Errorf("unknown command %q", opts.Command)
}

func render(ctx context.Context, opts *Options, cfg *config.Config) error {
	maxSymbols := cfg.MaxSymbols
	if opts.MaxSymbols >= 0 {
		maxSymbols = opts.MaxSymbols
	}

	req := &coordination.RenderRequest{
		GrammarPath: opts.GrammarPath,
		Depth:       opts.Depth,
		Scale:       opts.Scale,
		ScaleName:   opts.ScaleName,
		Start:       opts.Start,
		Strict:      opts.Strict,
		MaxSymbols:  maxSymbols,
		MIDIPath:    opts.Out,
		WAVPath:     opts.WAV,
		BPM:         opts.BPM,
		Audio:       audio.LoadRenderConfig(),
	}

	result, err := coordination.NewPipeline().Render(ctx, req)
	if err != nil {
		return err
	}

	if opts.PrintResult {
		fmt.Println(result.Report)
		fmt.Println()
	}
	fmt.Printf("✅ Wrote %d notes (%d symbols) to %s\n", len(result.Notes), result.Symbols, opts.Out)
	if opts.WAV != "" {
		fmt.Printf("🔊 Preview written to %s\n", opts.WAV)
	}
	return nil
}

func compose(ctx context.Context, opts *Options, cfg *config.Config) error {
	if opts.Provider != "" {
		cfg.Provider = opts.Provider
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}

	agent, err := composer.NewComposerAgent(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := agent.Compose(ctx, opts.Description)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("# %s\n%s\n", strings.ReplaceAll(opts.Description, "\n", " "), result.Grammar)
	if err := os.WriteFile(opts.Out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write grammar file %s: %w", opts.Out, err)
	}

	fmt.Println(result.Grammar)
	fmt.Printf("\n✅ Wrote grammar (%d rules, %d attempts, %d tokens) to %s\n",
		result.Definition.Rules, result.Attempts, result.Usage.TotalTokens, opts.Out)
	return nil
}
