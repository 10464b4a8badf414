package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-graph/internal/buildinfo"
	"github.com/thiagokokada/gitk-graph/internal/git"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprint(out, buildinfo.Template())
			v, err := git.GitVersion()
			if err != nil {
				fmt.Fprintf(out, "git: unavailable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "git: %s (cli backend needs %s or newer)\n", v, git.MinGitVersion())
			return nil
		},
	}
}
