package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geophoto/internal/humastar"
)

// Events streams the session's changes, so a second window on the same
// session follows the first.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	if _, err := h.sessions.State(input.Session); err != nil {
		return nil, httpError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		bus := h.sessions.Bus()
		ch := bus.Subscribe(input.Session)
		defer bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if err := h.presentState(sse, ev.Session); err != nil {
					sse.Error(err.Error())
					return
				}
				if ev.Resource == "layers" {
					if err := h.pushOverlays(sse, ev.Session); err != nil {
						sse.Error(err.Error())
						return
					}
				}
				sse.DispatchCustomEvent("viewer-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"label":    ev.Label,
				})
			}
		}
	}), nil
}
