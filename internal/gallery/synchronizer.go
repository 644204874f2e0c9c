package gallery

// LightboxState is a snapshot of the lightbox.
type LightboxState struct {
	Open   bool    `json:"open"`
	Index  int     `json:"index"`
	Src    string  `json:"src,omitempty"`
	Slides []Slide `json:"slides"`
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithViewer attaches the widget that displays slides.
func WithViewer(v SlideViewer) Option {
	return func(s *Synchronizer) { s.viewer = v }
}

// WithWrap sets whether next/prev wrap around the ends of the sequence.
// Without wrapping, stepping past either end closes the lightbox.
func WithWrap(wrap bool) Option {
	return func(s *Synchronizer) { s.wrap = wrap }
}

// Synchronizer keeps the visible layers and the lightbox slide sequence
// consistent. It is not safe for concurrent use; callers serialize events.
type Synchronizer struct {
	images []Image
	layers *Layers
	viewer SlideViewer
	wrap   bool

	open bool
	src  string
}

// NewSynchronizer starts with every type label of images visible and the
// lightbox closed.
func NewSynchronizer(images []Image, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		images: images,
		layers: NewLayers(TypeLabels(images)),
		wrap:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Images returns the full collection.
func (s *Synchronizer) Images() []Image {
	return s.images
}

// Layers returns a copy of the visible layer set.
func (s *Synchronizer) Layers() *Layers {
	return s.layers.Clone()
}

// ToggleType adds or removes label from the visible set. If the slide on
// display belongs to a layer that was just hidden the lightbox closes,
// otherwise it follows its slide to the new position.
func (s *Synchronizer) ToggleType(label string, adding bool) {
	s.layers.Toggle(label, adding)
	if !s.open {
		return
	}
	slides := s.Slides()
	idx := SlideIndex(slides, s.src)
	if idx < 0 {
		s.CloseLightbox()
		return
	}
	s.show(slides, idx)
}

// Slides returns the current slide sequence.
func (s *Synchronizer) Slides() []Slide {
	return SlideSequence(s.images, s.layers)
}

// OpenLightbox opens the lightbox on the slide whose URL is src. The index is
// resolved against the sequence as it is now. It reports false and leaves the
// lightbox untouched when src is not in the visible sequence.
func (s *Synchronizer) OpenLightbox(src string) bool {
	slides := s.Slides()
	idx := SlideIndex(slides, src)
	if idx < 0 {
		return false
	}
	s.open = true
	s.show(slides, idx)
	return true
}

// CloseLightbox closes the lightbox. Layers and images are untouched.
func (s *Synchronizer) CloseLightbox() {
	if !s.open {
		return
	}
	s.open = false
	s.src = ""
	if s.viewer != nil {
		s.viewer.Hide()
	}
}

// Next advances the lightbox by one slide.
func (s *Synchronizer) Next() {
	s.step(1)
}

// Prev moves the lightbox back by one slide.
func (s *Synchronizer) Prev() {
	s.step(-1)
}

func (s *Synchronizer) step(delta int) {
	if !s.open {
		return
	}
	slides := s.Slides()
	idx := SlideIndex(slides, s.src)
	if idx < 0 || len(slides) == 0 {
		s.CloseLightbox()
		return
	}
	idx += delta
	if idx < 0 || idx >= len(slides) {
		if !s.wrap {
			s.CloseLightbox()
			return
		}
		idx = (idx + len(slides)) % len(slides)
	}
	s.show(slides, idx)
}

func (s *Synchronizer) show(slides []Slide, idx int) {
	s.src = slides[idx].Src
	if s.viewer != nil {
		s.viewer.Show(slides, idx)
	}
}

// Lightbox returns the lightbox state with its index resolved against the
// current sequence.
func (s *Synchronizer) Lightbox() LightboxState {
	slides := s.Slides()
	st := LightboxState{Slides: slides}
	if !s.open {
		return st
	}
	st.Open = true
	st.Src = s.src
	st.Index = SlideIndex(slides, s.src)
	return st
}

// Overlays calls r once per known label, in render order, with the images of
// that label. Hidden labels are rendered with no images.
func (s *Synchronizer) Overlays(r MarkerRenderer) {
	for _, label := range s.layers.Labels() {
		var members []Image
		if s.layers.Visible(label) {
			for _, img := range s.images {
				if img.Type == label {
					members = append(members, img)
				}
			}
		}
		r.RenderMarkers(label, members)
	}
}

// Present replays the lightbox state onto v: the current slide when open,
// Hide otherwise. It lets a viewer attached after the fact catch up.
func (s *Synchronizer) Present(v SlideViewer) {
	st := s.Lightbox()
	if !st.Open || st.Index < 0 {
		v.Hide()
		return
	}
	v.Show(st.Slides, st.Index)
}
