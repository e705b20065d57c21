package dashboard

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-stations/internal/humastar"
)

// Events streams the session's filter changes made in other tabs.
func (h *Handler) Events(ctx context.Context, input *QueryInput) (*huma.StreamResponse, error) {
	id, err := input.id()
	if err != nil {
		return nil, err
	}
	tab := input.Signals().String("tab")
	bus := h.sessions.Bus()
	if bus == nil {
		return nil, huma.Error503ServiceUnavailable("Event stream not available")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case <-humaCtx.Context().Done():
					return
				case ev := <-ch:
					if ev.Session != id || (tab != "" && ev.Origin == tab) {
						continue
					}
					h.sendApplied(sse, ev.Selection)
				}
			}
		},
	}, nil
}
