package gallery

// Layers is the set of type labels currently toggled on, bounded by the
// labels known at load time.
type Layers struct {
	known   []string
	visible map[string]bool
}

// NewLayers returns a layer set over labels with every label visible.
func NewLayers(labels []string) *Layers {
	l := &Layers{
		known:   append([]string(nil), labels...),
		visible: make(map[string]bool, len(labels)),
	}
	for _, label := range labels {
		l.visible[label] = true
	}
	return l
}

// Toggle adds or removes label. Unknown labels are ignored and repeating
// the current state is a no-op.
func (l *Layers) Toggle(label string, adding bool) {
	if _, ok := l.visible[label]; !ok {
		return
	}
	l.visible[label] = adding
}

// Known reports whether label was part of the loaded collection.
func (l *Layers) Known(label string) bool {
	_, ok := l.visible[label]
	return ok
}

// Visible reports whether label is toggled on.
func (l *Layers) Visible(label string) bool {
	return l.visible[label]
}

// Labels returns every known label in render order.
func (l *Layers) Labels() []string {
	return append([]string(nil), l.known...)
}

// VisibleLabels returns the labels toggled on, in render order.
func (l *Layers) VisibleLabels() []string {
	out := []string{}
	for _, label := range l.known {
		if l.visible[label] {
			out = append(out, label)
		}
	}
	return out
}

// Len returns the number of visible labels.
func (l *Layers) Len() int {
	n := 0
	for _, on := range l.visible {
		if on {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (l *Layers) Clone() *Layers {
	c := &Layers{
		known:   append([]string(nil), l.known...),
		visible: make(map[string]bool, len(l.visible)),
	}
	for k, v := range l.visible {
		c.visible[k] = v
	}
	return c
}

// Filter returns the images whose type is visible, keeping collection order.
func (l *Layers) Filter(images []Image) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if l.visible[img.Type] {
			out = append(out, img)
		}
	}
	return out
}
