package activity

import (
	"context"
	"fmt"
	"time"

	hook "github.com/robotn/gohook"
)

// HookSource captures global keyboard and mouse events through the OS
// input hook. One instance per process; gohook registers a global hook.
type HookSource struct{}

func (HookSource) Run(ctx context.Context, events chan<- time.Time) error {
	evCh := hook.Start()
	defer hook.End()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evCh:
			if !ok {
				return fmt.Errorf("input hook channel closed")
			}
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold,
				hook.MouseDown, hook.MouseMove, hook.MouseDrag, hook.MouseWheel:
				// Drop rather than block when the consumer lags; the
				// next event carries a fresher instant anyway.
				select {
				case events <- time.Now():
				default:
				}
			}
		}
	}
}
