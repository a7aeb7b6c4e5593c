package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/strand/internal/definition"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch definition directories and recompile on change",
	Long: `Watches the configured component directories. When a definition file
changes, its components are re-registered, their cached artifacts are
invalidated, and component.updated events are published.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	w, err := watcher.New(watcher.Config{
		Dirs:        cfg.ComponentDirs,
		DebounceDur: cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "watching %d directories\n", len(cfg.ComponentDirs))

	for {
		select {
		case batch := <-onChange:
			for _, path := range batch {
				bundle, err := definition.LoadFile(path)
				if err != nil {
					log.ErrorErr(log.CatWatcher, "reload failed", err, "path", path)
					fmt.Fprintf(out, "reload %s: %v\n", path, err)
					continue
				}
				for _, c := range bundle.Components {
					if err := rt.compiler.UpdateComponent(ctx, c); err != nil {
						fmt.Fprintf(out, "update %s: %v\n", c.Name, err)
						continue
					}
					fmt.Fprintf(out, "updated %s\n", c.Name)
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}
