package cli

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// checkCommand creates the check command for validating flowchart files.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a flowchart JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(args[0])
		},
	}
}

func (c *CLI) runCheck(path string) error {
	fc, err := flow.ReadFile(path)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	err = fc.Validate()
	prog.done("Checked " + path)

	if err != nil {
		printError("invalid flowchart: %v", err)

		var verr *flow.ValidationError
		if stderrors.As(err, &verr) && verr.NodeID != "" {
			printDetail("offending node: %s", verr.NodeID)
		}
		return stderrors.New("validation failed")
	}

	printSuccess("flowchart is valid")
	printStats(len(fc.Nodes), len(fc.Edges))
	return nil
}
