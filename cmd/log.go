package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-graph/internal/config"
	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/history"
	"github.com/thiagokokada/gitk-graph/internal/logging"
	"github.com/thiagokokada/gitk-graph/internal/render"
)

func newLogCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "log [repo]",
		Short: "Print the laid-out commit graph",
		Long:  `Load up to --limit commits, lay out the whole graph and print one line per commit.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			logger := logging.Setup(cmd.ErrOrStderr(), flags.verbose)
			svc, err := openService(repoArg(args), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()
			theme, _ := render.ParseTheme(cfg.Theme)
			return printLog(cmd.OutOrStdout(), svc, cfg, render.PaletteFor(theme), logger)
		},
	}
}

func printLog(w io.Writer, svc *git.Service, cfg config.Config, p render.Palette, logger *slog.Logger) error {
	start := time.Now()
	commits, _, hasMore, err := svc.ScanCommits(0, cfg.Limit)
	if err != nil {
		return err
	}
	opts := []history.Option{
		history.WithBatchSize(cfg.BatchSize),
		history.WithWorkers(cfg.Workers),
		history.WithLogger(logger),
	}
	if cfg.Branches {
		opts = append(opts, history.WithProvider(svc))
	}
	hist := history.New(opts...)
	rows := make([]history.Commit, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, c)
	}
	hist.AppendMany(rows)

	if cfg.Branches {
		heads, err := svc.BranchHeads(cfg.Remotes)
		if err != nil {
			return err
		}
		for _, c := range heads {
			hist.Grow(c, nil)
		}
	}
	hist.ProcessBatches(hist.Len() - 1)
	hist.Wait()

	labels, err := svc.BranchLabels()
	if err != nil {
		logger.Error("failed to load branch labels", slog.Any("error", err))
	}
	laidOut := hist.Rows(0, hist.Len())
	width := render.Width(laidOut)
	bw := bufio.NewWriter(w)
	for _, row := range laidOut {
		c, ok := row.Commit.(*git.Commit)
		if !ok {
			continue
		}
		parts := []string{render.Row(row, p, width), c.ShortHash()}
		if l := labels[c.Hash]; len(l) > 0 {
			parts = append(parts, render.Labels(l, p, row.Dot.Color))
		}
		parts = append(parts, c.Subject())
		fmt.Fprintln(bw, strings.Join(parts, " "))
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if hasMore {
		logger.Info("more commits than --limit", slog.Int("limit", cfg.Limit))
	}
	logger.Debug("log printed",
		slog.Int("rows", len(laidOut)),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
	return nil
}
