package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"tuneshift/internal/quota"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
	"tuneshift/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.SourceCatalog
	search     services.SearchCatalog
	writer     services.PlaylistWriter
	tokens     services.TokenProvider
	budget     *quota.Budget
	engine     *tasks.ConversionEngine
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.SourceCatalog
	Search     services.SearchCatalog
	Writer     services.PlaylistWriter
	Tokens     services.TokenProvider
	Budget     *quota.Budget
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Budget == nil {
		opts.Budget = quota.NewBudget(opts.Config.Convert.DailyQuotaUnits)
	}

	engine := tasks.NewConversionEngine(opts.Source, opts.Search, opts.Writer, opts.Tokens, opts.Budget)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		search:     opts.Search,
		writer:     opts.Writer,
		tokens:     opts.Tokens,
		budget:     opts.Budget,
		engine:     engine,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, convertCommand, spotifyCommand, youtubeCommand, cacheCommand, quotaCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// engineOpts builds run options from config defaults overridden by flags.
func (r *Runner) engineOpts(cmd *cli.Command) tasks.EngineOpts {
	opts := tasks.EngineOpts{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Private:     cmd.Bool("private"),
		Threshold:   r.config.Convert.Threshold,
		MinViable:   r.config.Convert.MinViable,
		SearchLimit: r.config.Convert.SearchLimit,
		NumWorkers:  r.config.Convert.Workers,
		RateLimit:   r.config.Convert.RateLimit,
	}

	if cmd.IsSet("threshold") {
		opts.Threshold = cmd.Float("threshold")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}

	return opts
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
