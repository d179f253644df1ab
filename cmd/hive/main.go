// Command hive runs one agentic conversation turn from the terminal.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... hive [flags] prompt...
//	echo prompt | hive --provider bedrock
//
// Settings come from the environment (a .env file is loaded first), then
// the --config YAML file, then flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/agent"
	"github.com/fwojciec/hive/config"
	hivejson "github.com/fwojciec/hive/json"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "hive: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envFile    string
	provider   string
	model      string
	effort     string
	maxTurns   int
	resume     string
	save       string
	verbose    bool
	markdown   int
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	flags := pflag.NewFlagSet("hive", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVarP(&o.provider, "provider", "p", "", "provider: anthropic or bedrock")
	flags.StringVarP(&o.model, "model", "m", "", "model alias or ID")
	flags.StringVarP(&o.effort, "effort", "e", "", "effort: low, medium, high or max")
	flags.IntVar(&o.maxTurns, "max-turns", 0, "maximum request/tool round trips")
	flags.StringVarP(&o.resume, "resume", "r", "", "transcript file to continue")
	flags.StringVarP(&o.save, "save", "s", "", "transcript file to write (defaults to --resume)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging on stderr")
	flags.IntVar(&o.markdown, "markdown", 0, "render assistant text as markdown wrapped to this width (0 streams raw text)")
	if err := flags.Parse(args); err != nil {
		return options{}, nil, err
	}
	return o, flags.Args(), nil
}

// apply overrides cfg with flags that were set.
func (o options) apply(cfg *config.Config) {
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if o.effort != "" {
		cfg.Effort = o.effort
	}
	if o.maxTurns > 0 {
		cfg.MaxTurns = o.maxTurns
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", opts.envFile, err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	effort, _ := cfg.ParsedEffort()

	prompt, err := readPrompt(rest, stdin)
	if err != nil {
		return err
	}

	transcript, err := openTranscript(opts.resume, cfg)
	if err != nil {
		return err
	}
	transcript.Messages = append(transcript.Messages, hive.NewUserText(prompt))

	provider, err := newProvider(cfg, log)
	if err != nil {
		return err
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	loop, err := agent.New(provider, unavailableTools{},
		agent.WithModel(cfg.Model),
		agent.WithMaxTurns(cfg.MaxTurns),
		agent.WithBudget(cfg.BudgetConfig()),
		agent.WithWorkDir(workDir),
		agent.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var cancel atomic.Bool
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			cancel.Store(true)
		}
	}()

	conv := loop.Start(ctx, agent.Params{
		Transcript:   transcript.Messages,
		SystemPrompt: transcript.SystemPrompt,
		Effort:       effort,
		Cancel:       &cancel,
	})
	r := newRenderer(stdout, opts.markdown)
	for e := range conv.Events() {
		r.render(e)
	}
	res := conv.Wait()
	r.summary(res)

	transcript.Messages = res.Transcript
	transcript.UpdatedAt = time.Now()
	transcript.TotalInput = res.Usage.TotalInput
	transcript.TotalOutput += res.Usage.TotalOutput
	if path := savePath(opts, cfg, transcript.ID); path != "" {
		if err := hivejson.Save(path, transcript); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		log.Info("transcript saved", "path", path)
	}

	if res.State == agent.StateError {
		return res.Err
	}
	return nil
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", hive.ErrValidation)
	}
	return prompt, nil
}

func openTranscript(path string, cfg config.Config) (hive.Transcript, error) {
	if path != "" {
		t, err := hivejson.Load(path)
		if err != nil {
			return hive.Transcript{}, fmt.Errorf("resume: %w", err)
		}
		return t, nil
	}
	now := time.Now()
	return hive.Transcript{
		ID:           uuid.New().String(),
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func savePath(o options, cfg config.Config, id string) string {
	switch {
	case o.save != "":
		return o.save
	case o.resume != "":
		return o.resume
	case cfg.TranscriptDir != "":
		return filepath.Join(cfg.TranscriptDir, id+".json")
	}
	return ""
}
