package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/strand/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load <system>",
	Short: "Load a system definition and report its status",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	def, ok := rt.bundle.System(args[0])
	if !ok {
		return fmt.Errorf("system %s not found in configured directories", args[0])
	}

	sys, err := rt.compiler.Loader().LoadSystem(ctx, def, loader.Options{
		Lazy:                cfg.Loader.Lazy,
		CriticalPath:        cfg.Loader.CriticalPath,
		PreloadInBackground: cfg.Loader.PreloadInBackground,
		BackgroundPause:     cfg.Loader.BackgroundPause,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(sys.LoadedComponents))
	for name := range sys.LoadedComponents {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "system %s: %d components loaded\n", sys.Name, len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if !sys.ValidationStatus.IsValid {
		fmt.Fprintf(out, "validation problems:\n")
		for _, e := range sys.ValidationStatus.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	for name := range sys.LoadedComponents {
		for _, cycle := range rt.compiler.Loader().DetectCircularDependencies(name) {
			fmt.Fprintf(out, "circular dependency: %s\n", strings.Join(cycle, " -> "))
		}
	}
	return nil
}
