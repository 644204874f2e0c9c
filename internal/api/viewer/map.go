package viewer

import (
	"context"
	"encoding/json"
	"html/template"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/geo"
	"github.com/joeblew999/geophoto/internal/humastar"
	"github.com/joeblew999/geophoto/internal/richtext"
	"github.com/joeblew999/geophoto/internal/service"
)

type ShowInput struct {
	Resume string `query:"session" doc:"Existing session to resume instead of starting a new one"`
}

type ErrorData struct {
	Message string
}

// Overlay is one type layer as drawn by the browser.
type Overlay struct {
	Label   string                     `json:"label"`
	Visible bool                       `json:"visible"`
	Markers *geojson.FeatureCollection `json:"markers"`
}

// PopupData feeds the popup fragment.
type PopupData struct {
	Session     string
	Image       gallery.Image
	Description template.HTML
}

// Show waits for the collection and then replaces the loading view with the
// map, or with the load error message alone.
func (h *Handler) Show(ctx context.Context, input *ShowInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		loader := h.sessions.Loader()
		select {
		case <-loader.Done():
		default:
			sse.Patch(h.Render("map-loading", nil), "#map-root")
		}

		snap, err := loader.Wait(ctx)
		if err != nil {
			return
		}
		if snap.Status == gallery.StatusError {
			sse.Patch(h.Render("map-error", ErrorData{Message: snap.Message}), "#map-root")
			return
		}

		state, err := h.resume(input.Resume)
		if err != nil {
			sse.Error(err.Error())
			return
		}

		sse.Patch(h.Render("map-view", state), "#map-root")
		sse.Signals(map[string]any{"session": state.Session})
		h.present(sse, state)

		overlays, err := h.overlays(state.Session)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		mount, err := json.Marshal(struct {
			MapSettings
			Overlays []Overlay `json:"overlays"`
		}{h.settings, overlays})
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.ExecuteScript("geophoto.mount(" + string(mount) + ")")
	}), nil
}

func (h *Handler) resume(id string) (service.ViewerState, error) {
	if id != "" {
		if state, err := h.sessions.State(id); err == nil {
			return state, nil
		}
	}
	sess, err := h.sessions.Create()
	if err != nil {
		return service.ViewerState{}, err
	}
	return h.sessions.State(sess.ID)
}

// overlays renders one GeoJSON overlay per type label with popups attached.
func (h *Handler) overlays(session string) ([]Overlay, error) {
	r := &popupRenderer{MarkerRenderer: geo.NewMarkerRenderer(), session: session, render: h.Render}
	if err := h.sessions.Overlays(session, r); err != nil {
		return nil, err
	}
	state, err := h.sessions.State(session)
	if err != nil {
		return nil, err
	}
	visible := map[string]bool{}
	for _, l := range state.Layers {
		visible[l.Label] = l.Visible
	}
	out := make([]Overlay, 0, len(r.Order))
	for _, label := range r.Order {
		out = append(out, Overlay{Label: label, Visible: visible[label], Markers: r.Overlays[label]})
	}
	return out, nil
}

// popupRenderer adds the rendered popup to every marker.
type popupRenderer struct {
	*geo.MarkerRenderer
	session string
	render  func(name string, data any) string
}

func (r *popupRenderer) RenderMarkers(label string, images []gallery.Image) {
	r.MarkerRenderer.RenderMarkers(label, images)
	fc := r.Overlays[label]
	for i, f := range fc.Features {
		f.Properties["popup"] = r.render("popup", PopupData{
			Session:     r.session,
			Image:       images[i],
			Description: richtext.HTML(images[i].Description),
		})
	}
}
