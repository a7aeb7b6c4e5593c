package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/strand/internal/component"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry and cache status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	out := cmd.OutOrStdout()
	all := rt.compiler.Registry().List()
	byType := make(map[component.Type]int)
	for _, c := range all {
		byType[c.Type]++
	}

	fmt.Fprintf(out, "components: %d\n", len(all))
	for _, t := range component.Types {
		if byType[t] > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", t, byType[t])
		}
	}
	fmt.Fprintf(out, "systems: %d\n", len(rt.bundle.Systems))

	stats := rt.compiler.CacheStats()
	fmt.Fprintf(out, "cache: %d entries, %d hits, %d misses\n", stats.Size, stats.Hits, stats.Misses)
	return nil
}
