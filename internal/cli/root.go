package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/arena"
	"github.com/wippyai/tagcast/linmem"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
}

// NewRootCommand creates the root command for the tagdemo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tagdemo",
		Short: "Tagged allocation and checked casts",
		Long: `tagdemo exercises shape-tagged allocation and tag-checked casts on the
Go heap, in a fixed arena and in WebAssembly linear memory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.Verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = Logger().Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML configuration file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewShapesCommand(opts))
	cmd.AddCommand(NewInteractiveCommand(opts))

	return cmd
}

func setupLogging(verbose bool) error {
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}

	SetLogger(log)
	tagcast.SetLogger(log.Named("tagcast"))
	arena.SetLogger(log.Named("arena"))
	linmem.SetLogger(log.Named("linmem"))
	return nil
}
