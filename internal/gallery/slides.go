package gallery

// SlideSequence projects the visible images to their large renditions.
// It has no side effects and is cheap enough to call on every render.
func SlideSequence(images []Image, layers *Layers) []Slide {
	visible := layers.Filter(images)
	slides := make([]Slide, len(visible))
	for i, img := range visible {
		slides[i] = Slide{Src: img.Variants.Large, Title: img.LocationName}
	}
	return slides
}

// SlideIndex returns the position of the first slide whose URL equals src,
// or -1.
func SlideIndex(slides []Slide, src string) int {
	for i, s := range slides {
		if s.Src == src {
			return i
		}
	}
	return -1
}
