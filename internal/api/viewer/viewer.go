// Package viewer contains the Datastar SSE handlers behind the map page.
package viewer

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geophoto/internal/humastar"
	"github.com/joeblew999/geophoto/internal/service"
	"github.com/joeblew999/geophoto/internal/templates"
)

// MapSettings is the tile layer and initial view handed to the browser.
type MapSettings struct {
	CenterLat   float64 `json:"centerLat"`
	CenterLng   float64 `json:"centerLng"`
	Zoom        int     `json:"zoom"`
	TileURL     string  `json:"tileUrl"`
	Attribution string  `json:"attribution"`
}

// Handler serves the map viewer. Every mutating route answers with the
// fragments and scripts that bring the page in line with the session.
type Handler struct {
	humastar.Handler
	sessions *service.SessionService
	settings MapSettings
}

func NewHandler(sessions *service.SessionService, renderer *templates.Renderer, settings MapSettings) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
		settings: settings,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/map", h.Show, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/{session}/state", h.State, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/{session}/events", h.Events, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/{session}/layers/{type}", h.Toggle, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/{session}/lightbox", h.Open, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/{session}/lightbox/next", h.Next, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/{session}/lightbox/prev", h.Prev, huma.OperationTags("viewer"))
	huma.Delete(api, "/api/v1/viewer/{session}/lightbox", h.Close, huma.OperationTags("viewer"))
}

type SessionInput struct {
	Session string `path:"session" doc:"Viewer session ID"`
}

// State returns the session state as JSON.
func (h *Handler) State(ctx context.Context, input *SessionInput) (*struct{ Body service.ViewerState }, error) {
	state, err := h.sessions.State(input.Session)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body service.ViewerState }{Body: state}, nil
}

// httpError maps service errors onto Huma errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrNoSession):
		return huma.Error404NotFound("Session not found")
	case errors.Is(err, service.ErrNotReady):
		return huma.Error503ServiceUnavailable("image collection is still loading")
	case errors.Is(err, service.ErrLoadFailed):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError("viewer error", err)
	}
}

// present patches the overlay list and the lightbox for the session's
// current state. state only names the session; everything sent comes from
// one read.
func (h *Handler) present(sse humastar.SSE, state service.ViewerState) {
	view := &lightboxView{render: h.Render, session: state.Session}
	state, err := h.sessions.Present(state.Session, view)
	if err != nil {
		sse.Error(err.Error())
		return
	}
	sse.Patch(h.Render("overlay-list", state), "#overlays")
	sse.Patch(view.html, "#lightbox")
	sse.Signals(map[string]any{
		"lightboxOpen":  state.Lightbox.Open,
		"lightboxIndex": state.Lightbox.Index,
	})
}
