package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-graph/internal/config"
)

// globalFlags are shared by every command. Settings only override the
// config file when given explicitly.
type globalFlags struct {
	verbose    bool
	configPath string
}

func (f *globalFlags) register(root *cobra.Command) {
	defaults := config.Default()
	pf := root.PersistentFlags()
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&f.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.String("backend", defaults.Backend, "repository backend: native or cli")
	pf.Int("batch-size", defaults.BatchSize, "rows laid out per layout batch")
	pf.Int("workers", defaults.Workers, "parallel layout workers (0 uses every CPU)")
	pf.Int("limit", defaults.Limit, "commits loaded from the repository at a time")
	pf.String("theme", defaults.Theme, "color theme: auto, light or dark")
	pf.Bool("branches", defaults.Branches, "also show branches not reachable from HEAD")
	pf.Bool("remotes", defaults.Remotes, "include remote branches with --branches")
}

// resolve loads the config file and applies the flags set on cmd over it.
func (f *globalFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	fs := cmd.Flags()
	var errs []error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			v, err := fs.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	flag := func(name string, dst *bool) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, err := fs.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	str("backend", &cfg.Backend)
	str("theme", &cfg.Theme)
	num("batch-size", &cfg.BatchSize)
	num("workers", &cfg.Workers)
	num("limit", &cfg.Limit)
	flag("branches", &cfg.Branches)
	flag("remotes", &cfg.Remotes)
	flag("watch", &cfg.Watch)
	flag("syntax", &cfg.Syntax)
	for _, err := range errs {
		if err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}
