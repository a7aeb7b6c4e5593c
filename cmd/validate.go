package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <component>",
	Short: "Validate a component and report the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	result, err := rt.compiler.ValidateComponent(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.IsValid {
		fmt.Fprintf(out, "%s: valid\n", args[0])
		return nil
	}

	fmt.Fprintf(out, "%s: invalid (%d problems)\n", args[0], len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	return nil
}
