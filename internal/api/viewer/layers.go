package viewer

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geophoto/internal/humastar"
)

type ToggleInput struct {
	Session string `path:"session" doc:"Viewer session ID"`
	Type    string `path:"type" doc:"Type label"`
	RawBody []byte
}

// Toggle shows or hides one type layer. The direction comes from the
// "adding" signal.
func (h *Handler) Toggle(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	signals, err := humastar.ParseBody(input.RawBody)
	if err != nil {
		return nil, err
	}
	if !signals.Has("adding") {
		return nil, huma.Error400BadRequest("adding signal is required")
	}
	adding := signals.Bool("adding")

	state, err := h.sessions.Toggle(input.Session, input.Type, adding)
	if err != nil {
		return nil, httpError(err)
	}

	return h.Stream(func(sse humastar.SSE) {
		h.present(sse, state)
		if err := h.pushOverlays(sse, state.Session); err != nil {
			sse.Error(err.Error())
		}
	}), nil
}

// pushOverlays redraws every overlay in the browser.
func (h *Handler) pushOverlays(sse humastar.SSE, session string) error {
	overlays, err := h.overlays(session)
	if err != nil {
		return err
	}
	data, err := json.Marshal(overlays)
	if err != nil {
		return err
	}
	return sse.ExecuteScript("geophoto.overlays(" + string(data) + ")")
}
