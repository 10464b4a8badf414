// Package cmd implements the gitk-graph command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-graph/internal/buildinfo"
	"github.com/thiagokokada/gitk-graph/internal/config"
	"github.com/thiagokokada/gitk-graph/internal/git"
	"github.com/thiagokokada/gitk-graph/internal/git/backend"
	"github.com/thiagokokada/gitk-graph/internal/logging"
	"github.com/thiagokokada/gitk-graph/internal/render"
	"github.com/thiagokokada/gitk-graph/internal/tui"
)

// Execute runs the command line with os.Args.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var logFile string

	root := &cobra.Command{
		Use:          "gitk-graph [repo]",
		Short:        "Browse a repository's commit graph in the terminal",
		Long:         `gitk-graph lays out the commit history of a git repository as a lane graph and lets you browse it, with diffs, in the terminal.`,
		Version:      buildinfo.Version(),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			out, err := logging.Output(logFile)
			if err != nil {
				return err
			}
			defer out.Close()
			logger := logging.Setup(out, flags.verbose)

			svc, err := openService(repoArg(args), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()
			theme, _ := render.ParseTheme(cfg.Theme)
			return tui.Run(svc, tui.Options{
				Limit:     cfg.Limit,
				BatchSize: cfg.BatchSize,
				Workers:   cfg.Workers,
				Palette:   render.PaletteFor(theme),
				Syntax:    cfg.Syntax,
				Branches:  cfg.Branches,
				Remotes:   cfg.Remotes,
				Logger:    logger,
			}, cfg.Watch)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	flags.register(root)
	root.Flags().StringVar(&logFile, "log-file", "", "write browser logs to this file instead of discarding them")
	root.Flags().Bool("watch", true, "reload automatically when the repository changes")
	root.Flags().Bool("syntax", true, "highlight code in the diff pane")

	root.AddCommand(newLogCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

func repoArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func openService(repoPath string, cfg config.Config) (*git.Service, error) {
	kind, err := backend.ParseKind(cfg.Backend)
	if err != nil {
		return nil, err
	}
	svc, err := git.Open(repoPath, kind)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", repoPath, err)
	}
	slog.Debug("repository opened",
		slog.String("path", svc.RepoPath()),
		slog.String("backend", kind.String()),
	)
	return svc, nil
}
