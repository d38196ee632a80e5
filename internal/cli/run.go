package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OKMessage is printed when every backend passed.
const OKMessage = "We're all a-ok over here."

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend   string
	Count     int
	ArenaSize int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Allocate, cast and free the reference objects",
		Long: `Allocate count objects of each shape, cast every object to every shape,
check that only its own shape matches, then free everything.

Example:
  tagdemo run
  tagdemo run --backend wasm --count 1000
  tagdemo run --config shapes.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.Config)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = opts.Backend
			}
			if cmd.Flags().Changed("count") {
				cfg.Count = opts.Count
			}
			if cmd.Flags().Changed("arena-size") {
				cfg.ArenaSize = opts.ArenaSize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runScenario(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", BackendAll, "heap|arena|wasm|all")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 100, "objects per shape")
	cmd.Flags().IntVar(&opts.ArenaSize, "arena-size", 0, "arena capacity in bytes (0 fits the run)")

	return cmd
}

func runScenario(cmd *cobra.Command, cfg Config) error {
	out := cmd.OutOrStdout()

	run := func(backend string) (Report, error) {
		switch backend {
		case BackendHeap:
			return RunHeap(cfg.Count)
		case BackendArena:
			return RunArena(cfg.Count, cfg.ArenaSize)
		default:
			return RunWasm(cmd.Context(), cfg)
		}
	}

	backends := []string{cfg.Backend}
	if cfg.Backend == BackendAll {
		backends = []string{BackendHeap, BackendArena, BackendWasm}
	}

	for _, b := range backends {
		r, err := run(b)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, r)
	}
	fmt.Fprintln(out, OKMessage)
	return nil
}
