package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/registry"
)

var listType string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered components",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "filter by component type")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	criteria := registry.Criteria{}
	if listType != "" {
		t := component.Type(listType)
		if !t.IsValid() {
			return fmt.Errorf("unknown component type: %s", listType)
		}
		criteria.Type = t
	}

	components, err := rt.compiler.Registry().FindComponents(criteria)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range components {
		line := fmt.Sprintf("%-24s %-10s", c.Name, c.Type)
		if len(c.Tags) > 0 {
			line += " [" + strings.Join(c.Tags, ", ") + "]"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d components\n", len(components))
	return nil
}
