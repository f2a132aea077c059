package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lex00/goalstack-go/internal/validation"
)

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// newWatchCmd creates the "watch" subcommand for re-rendering on config changes.
func newWatchCmd(root *rootOptions) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render when the config file changes",
		Long: `Watch monitors the config file and re-renders the template on every change.

Each render is checked for undefined references and cycles; with --output the
template is written to that file, otherwise a summary is printed.

Examples:
    goalstack watch
    goalstack watch -o template.yaml -f yaml
    goalstack watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: print a summary)")

	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts watchOptions) error {
	logger := zerolog.Ctx(cmd.Context())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files on save, so watch the directory, not the file.
	target, err := filepath.Abs(root.configPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info().Str("config", target).Msg("watching")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	render(cmd, root, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigChange(event, target) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			logger.Info().Msg("config changed, re-rendering")
			render(cmd, root, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")

		case <-sigChan:
			logger.Info().Msg("stopping watch")
			return nil

		case <-cmd.Context().Done():
			return nil
		}
	}
}

func isConfigChange(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// render builds and reports one template. Failures are logged, not returned,
// so the watch keeps running.
func render(cmd *cobra.Command, root *rootOptions, opts watchOptions) {
	logger := zerolog.Ctx(cmd.Context())

	_, tmpl, err := root.loadGoals(cmd)
	if err != nil {
		logger.Error().Err(err).Msg("build failed")
		return
	}
	if problems := validation.Structural(tmpl); len(problems) > 0 {
		for _, p := range problems {
			logger.Error().Msg(p)
		}
		return
	}

	if opts.outputFile == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Build successful: %d resources\n", len(tmpl.Resources))
		return
	}
	data, err := encode(tmpl, opts.outputFormat)
	if err != nil {
		logger.Error().Err(err).Msg("encoding failed")
		return
	}
	if err := writeOutput(cmd.OutOrStdout(), data, opts.outputFile); err != nil {
		logger.Error().Err(err).Msg("write failed")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Build successful, wrote %s\n", opts.outputFile)
}
