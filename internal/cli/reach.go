package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// reachCommand creates the reach command for reachability queries on files.
func (c *CLI) reachCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "reach [file]",
		Short: "Print the nodes reachable from a start node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReach(args[0], from)
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "start node ID (required)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (c *CLI) runReach(path, from string) error {
	fc, err := flow.ReadFile(path)
	if err != nil {
		return err
	}

	if !fc.HasNode(from) {
		printInfo("node %s is not declared in %s", StyleHighlight.Render(from), path)
		return nil
	}

	connected := flow.ReachableFrom(fc.Nodes, fc.Edges, from)
	if len(connected) == 0 {
		printInfo("no nodes reachable from %s", StyleHighlight.Render(from))
		return nil
	}

	printInfo("%d nodes reachable from %s", len(connected), StyleHighlight.Render(from))
	for _, id := range connected {
		label := ""
		for _, n := range fc.Nodes {
			if n.ID == id && n.Label != "" {
				label = "  " + StyleDim.Render(n.Label)
				break
			}
		}
		fmt.Println("  " + StyleValue.Render(id) + label)
	}
	return nil
}
