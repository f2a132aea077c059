package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/internal/config"
	"github.com/lex00/goalstack-go/internal/naming"
	"github.com/lex00/goalstack-go/internal/template"
	"github.com/lex00/goalstack-go/stack"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	project    string
	stackName  string
	region     string
	seed       uint64
	verbose    bool
}

func (o *rootOptions) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", config.DefaultPath, "Config file")
	flags.StringVar(&o.project, "project", "", "Project name (overrides config)")
	flags.StringVar(&o.stackName, "stack", "", "Stack name (overrides config)")
	flags.StringVar(&o.region, "region", "", "AWS region (overrides config)")
	flags.Uint64Var(&o.seed, "seed", 0, "Seed for bucket name suffixes (overrides config)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log debug output")
}

// setup installs a console logger on stderr into the command context.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	level := zerolog.InfoLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig reads the config file and applies flag overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := o.configPath
	if !cmd.Flags().Changed("config") {
		// a missing default file means defaults
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if o.project != "" {
		cfg.Project = o.project
	}
	if o.stackName != "" {
		cfg.StackName = o.stackName
	}
	if o.region != "" {
		cfg.Region = o.region
	}
	if cmd.Flags().Changed("seed") {
		seed := o.seed
		cfg.Seed = &seed
	}
	return cfg, cfg.Validate()
}

// allocator returns a seeded allocator when cfg carries a seed.
func allocator(cfg config.Config) *naming.Allocator {
	if cfg.Seed != nil {
		return naming.New(*cfg.Seed)
	}
	return naming.NewRandom()
}

// loadGoals builds the goals stack from the resolved config.
func (o *rootOptions) loadGoals(cmd *cobra.Command) (*stack.Goals, *goalstack.Template, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	goals, err := stack.NewGoals(cfg, allocator(cfg))
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := goals.Template()
	if err != nil {
		return nil, nil, err
	}
	return goals, tmpl, nil
}

// encode renders tmpl as json or yaml.
func encode(tmpl *goalstack.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	default:
		return nil, fmt.Errorf("unknown format: %s (use 'json' or 'yaml')", format)
	}
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, data []byte, path string) error {
	if path == "" {
		_, err := w.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
