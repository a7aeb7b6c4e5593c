package loader

import (
	"context"
	"time"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
)

// startBackgroundPreload materializes the remaining references one at a
// time on a separate goroutine, pausing between items so the queue never
// starves other pending work. Cancelling ctx abandons the remaining queue;
// an in-flight item is not interrupted.
func (l *Loader) startBackgroundPreload(ctx context.Context, sys *component.LoadedSystem, queue []component.Ref, pause time.Duration) {
	log.Debug(log.CatLoader, "background preload starting", "system", sys.Name, "queued", len(queue))

	log.SafeGo("loader.backgroundPreload["+sys.Name+"]", func() {
		for i, ref := range queue {
			select {
			case <-ctx.Done():
				log.Debug(log.CatLoader, "background preload abandoned", "system", sys.Name, "remaining", len(queue)-i)
				return
			default:
			}

			l.materialize(ctx, sys, ref.Ref)

			// Cooperative pause between items.
			select {
			case <-ctx.Done():
				return
			case <-time.After(pause):
			}
		}
		log.Debug(log.CatLoader, "background preload complete", "system", sys.Name, "count", len(queue))
	})
}
