package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/humastar"
)

// LightboxData feeds the lightbox fragment.
type LightboxData struct {
	Session string
	Slide   gallery.Slide
	Index   int
	Number  int
	Count   int
}

// lightboxView renders the lightbox fragment. It satisfies
// gallery.SlideViewer.
type lightboxView struct {
	render  func(name string, data any) string
	session string
	html    string
}

var _ gallery.SlideViewer = (*lightboxView)(nil)

func (v *lightboxView) Show(slides []gallery.Slide, index int) {
	v.html = v.render("lightbox", LightboxData{
		Session: v.session,
		Slide:   slides[index],
		Index:   index,
		Number:  index + 1,
		Count:   len(slides),
	})
}

func (v *lightboxView) Hide() {
	v.html = ""
}

type OpenInput struct {
	Session string `path:"session" doc:"Viewer session ID"`
	RawBody []byte
}

// Open opens the lightbox on the clicked image, named by the "clicked"
// signal. An image outside the visible layers leaves the page untouched.
func (h *Handler) Open(ctx context.Context, input *OpenInput) (*huma.StreamResponse, error) {
	signals, err := humastar.ParseBody(input.RawBody)
	if err != nil {
		return nil, err
	}
	state, opened, err := h.sessions.Open(input.Session, signals.String("clicked"))
	if err != nil {
		return nil, httpError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if !opened {
			return
		}
		h.present(sse, state)
	}), nil
}

func (h *Handler) Next(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.step(input.Session, 1)
}

func (h *Handler) Prev(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.step(input.Session, -1)
}

func (h *Handler) step(session string, delta int) (*huma.StreamResponse, error) {
	state, err := h.sessions.Step(session, delta)
	if err != nil {
		return nil, httpError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		h.present(sse, state)
	}), nil
}

func (h *Handler) Close(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	state, err := h.sessions.Close(input.Session)
	if err != nil {
		return nil, httpError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		h.present(sse, state)
	}), nil
}

// presentState is used by the event stream, which only has an ID.
func (h *Handler) presentState(sse humastar.SSE, session string) error {
	state, err := h.sessions.State(session)
	if err != nil {
		return err
	}
	h.present(sse, state)
	return nil
}
