package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/mortar/internal/app"
	"github.com/vk/mortar/internal/config"
	"github.com/vk/mortar/internal/label"
)

type rootOptions struct {
	workspace       string
	logLevel        string
	logFormat       string
	workers         int
	healthcheckPort int
	repository      string
}

// Execute runs the mortar command line with args. The returned error, if
// any, is an *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, version string) error {
	root := NewRootCommand(outW, errW, version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return toExitError(err)
	}
	return nil
}

// NewRootCommand builds the mortar command tree.
func NewRootCommand(outW, errW io.Writer, version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mortar",
		Short: "Hermetic, layer-scheduled builds driven by BUILD.hcl files",
		Long: `mortar resolves target labels, orders targets into dependency layers and
runs each target's command inside a proot sandbox whose inputs are mounted
read-only with bindfs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.workspace, "workspace", "w", ".", "Workspace root holding mortar.yaml and BUILD.hcl files.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "auto", "Log output format. Options: 'auto', 'text' or 'json'.")
	flags.IntVar(&opts.workers, "workers", 0, "Targets run concurrently per layer. 0 uses mortar.yaml.")
	flags.IntVar(&opts.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	flags.StringVar(&opts.repository, "repository", "", "Repository name labels resolve against. Overrides mortar.yaml.")

	newApp := func() (*app.App, error) {
		cfg, err := app.NewConfig(app.Config{
			Workspace:       opts.workspace,
			LogFormat:       opts.logFormat,
			LogLevel:        opts.logLevel,
			HealthcheckPort: opts.healthcheckPort,
			Workers:         opts.workers,
			Repository:      opts.repository,
			Version:         version,
		})
		if err != nil {
			return nil, usageError(err)
		}
		return app.NewApp(outW, errW, cfg)
	}

	root.AddCommand(
		newResolveCommand(opts, outW),
		newLayersCommand(newApp),
		newSandboxCommand(newApp),
		newBuildCommand(newApp),
		newWatchCommand(newApp),
	)
	return root
}

func newResolveCommand(opts *rootOptions, outW io.Writer) *cobra.Command {
	var pkg string

	cmd := &cobra.Command{
		Use:   "resolve LABEL...",
		Short: "Print the canonical form of labels",
		Args:  withUsage(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			repository := opts.repository
			if repository == "" {
				settings, err := config.Load(opts.workspace)
				if err != nil {
					return err
				}
				repository = settings.Repository
			}

			ctx := label.Context{Repository: repository, Package: pkg}
			for _, text := range args {
				l, err := ctx.Resolve(text)
				if err != nil {
					return err
				}
				fmt.Fprintln(outW, l)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "Package the labels are written in.")
	return cmd
}

func newLayersCommand(newApp func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "layers [LABEL...]",
		Short: "Print the scheduling layers of the workspace or of the given targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Layers(cmd.Context(), args)
		},
	}
}

func newSandboxCommand(newApp func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox LABEL",
		Short: "Print the commands that build a target inside its sandbox",
		Args:  withUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Sandbox(cmd.Context(), args[0])
		},
	}
}

func newBuildCommand(newApp func() (*app.App, error)) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "build [LABEL...]",
		Short: "Build the workspace or the given targets and their dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			_, err = a.Build(cmd.Context(), app.BuildOptions{Labels: args, DryRun: dryRun})
			return err
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the commands instead of running them.")
	return cmd
}

func newWatchCommand(newApp func() (*app.App, error)) *cobra.Command {
	var (
		dryRun   bool
		debounce = app.DefaultDebounce
	)

	cmd := &cobra.Command{
		Use:   "watch [LABEL...]",
		Short: "Rebuild whenever a BUILD.hcl or mortar.yaml changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context(), app.WatchOptions{
				BuildOptions: app.BuildOptions{Labels: args, DryRun: dryRun},
				Debounce:     debounce,
			})
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the commands instead of running them.")
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "Quiet period before a change triggers a rebuild.")
	return cmd
}
