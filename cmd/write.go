package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jittakal/splitstore/internal/config"
	"github.com/jittakal/splitstore/internal/config/dto"
	"github.com/jittakal/splitstore/internal/splitter"
	"github.com/jittakal/splitstore/internal/validator"
)

type writeOptions struct {
	labels    []string
	bulkLines int
}

func newWriteCommand() *cobra.Command {
	var opts writeOptions

	cmd := &cobra.Command{
		Use:   "write [files...]",
		Short: "Split stdin or files into rotating split files",
		Long: `Reads lines from the given files, or stdin when none are given, and
writes them into split files. With --bulk-lines 0 input is streamed through
the writer; otherwise every N lines are written as one bulk, which counts
towards --bulks-per-file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().Read(configPath(cmd))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := applyWriteFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
			if len(opts.labels) == 0 {
				opts.labels = cfg.Splitter.Labels
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := newLogger(cfg)
			stats, err := runWrite(ctx, cfg, opts, args, cmd.InOrStdin(), logger)
			if err != nil {
				return err
			}

			logger.Info("split complete",
				"base_path", cfg.Splitter.BasePath,
				"files", stats.FilesCreated,
				"lines", stats.LinesWritten,
				"last_file_id", stats.FileID,
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("base-path", "", "directory or key prefix for split files (overrides splitter.base_path)")
	flags.StringArrayVar(&opts.labels, "label", nil, "label attached to every file (repeatable)")
	flags.Int("lines-per-file", splitter.Unlimited, "rotate after this many lines, -1 for unlimited")
	flags.Int("bulks-per-file", splitter.Unlimited, "rotate after this many bulks, -1 for unlimited")
	flags.Float64("last-group-id", -1, "continue numbering after this file id")
	flags.IntVar(&opts.bulkLines, "bulk-lines", 0, "lines per bulk, 0 streams input without bulks")

	return cmd
}

// applyWriteFlags overrides configuration values with flags that were set.
func applyWriteFlags(cmd *cobra.Command, cfg *dto.ApplicationConfig) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("base-path") {
		cfg.Splitter.BasePath, err = flags.GetString("base-path")
		if err != nil {
			return err
		}
	}
	if flags.Changed("lines-per-file") {
		cfg.Splitter.LinesPerFile, err = flags.GetInt("lines-per-file")
		if err != nil {
			return err
		}
	}
	if flags.Changed("bulks-per-file") {
		cfg.Splitter.BulksPerFile, err = flags.GetInt("bulks-per-file")
		if err != nil {
			return err
		}
	}
	if flags.Changed("last-group-id") {
		cfg.Splitter.LastGroupID, err = flags.GetFloat64("last-group-id")
		if err != nil {
			return err
		}
	}
	return nil
}

// runWrite splits every input into one writer and returns its final stats.
// Inputs named "-" and an empty input list read stdin.
func runWrite(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	opts writeOptions,
	inputs []string,
	stdin io.Reader,
	logger *slog.Logger,
) (splitter.Stats, error) {
	var stats splitter.Stats

	if opts.bulkLines < 0 {
		return stats, fmt.Errorf("--bulk-lines must not be negative, got %d", opts.bulkLines)
	}
	if err := validator.ValidateLabels(opts.labels); err != nil {
		return stats, err
	}

	sinks, closeSinks, err := newSinkFactory(ctx, cfg.Storage, logger, nil)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err := closeSinks(); err != nil {
			logger.Error("failed to close storage client", "error", err)
		}
	}()

	options, err := writerOptions(cfg.Splitter)
	if err != nil {
		return stats, err
	}
	options = append(options, splitter.WithSinkFactory(sinks), splitter.WithLogger(logger))

	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	err = splitter.With(splitterConfig(cfg.Splitter), func(w *splitter.Writer) error {
		if len(opts.labels) > 0 {
			if err := w.SetLabels(opts.labels); err != nil {
				return err
			}
		}
		for _, input := range inputs {
			if err := writeInput(ctx, w, input, stdin, opts.bulkLines); err != nil {
				return err
			}
		}
		stats = w.Stats()
		return nil
	}, options...)

	return stats, err
}

func writeInput(ctx context.Context, w *splitter.Writer, input string, stdin io.Reader, bulkLines int) error {
	if input == "-" {
		return copyLines(ctx, w, stdin, bulkLines)
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	if err := copyLines(ctx, w, f, bulkLines); err != nil {
		return fmt.Errorf("failed to split %s: %w", input, err)
	}
	return nil
}

// copyLines streams r into w, or groups bulkLines lines per WriteLines call.
func copyLines(ctx context.Context, w *splitter.Writer, r io.Reader, bulkLines int) error {
	r = &contextReader{ctx: ctx, r: r}

	if bulkLines == 0 {
		_, err := io.Copy(w, r)
		return err
	}

	br := bufio.NewReader(r)
	bulk := make([][]byte, 0, bulkLines)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			bulk = append(bulk, line)
			if len(bulk) == bulkLines {
				if werr := w.WriteLines(bulk); werr != nil {
					return werr
				}
				bulk = bulk[:0]
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	if len(bulk) > 0 {
		return w.WriteLines(bulk)
	}
	return nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
