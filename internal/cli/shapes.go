package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wippyai/tagcast"
	"github.com/wippyai/tagcast/linmem"
)

// NewShapesCommand creates the shapes command.
func NewShapesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "Print the linear-memory layout of the configured shapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			shapes, err := cfg.BuildShapes()
			if err != nil {
				return err
			}
			return printShapes(cmd.OutOrStdout(), shapes)
		},
	}
}

func printShapes(out io.Writer, shapes []*linmem.Shape) error {
	mode := "checked"
	if !tagcast.Checked {
		mode = "unchecked"
	}
	fmt.Fprintf(out, "mode: %s, layout: %s, slot: %d bytes\n\n", mode, tagcast.Layout, linmem.SlotSize)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range shapes {
		fmt.Fprintf(w, "%s\tid=%d\tsize=%d\talign=%d\n", s.Name, s.ID, s.Size, s.Align)
		if linmem.SlotSize > 0 {
			fmt.Fprintf(w, "  @0\t<shape-id>\tu32\t\n")
		}
		for _, f := range s.Fields() {
			fmt.Fprintf(w, "  @%d\t%s\t%s\t\n", f.Offset, f.Name, TypeName(f.Type))
		}
	}
	return w.Flush()
}
