package gallery

// SlideViewer displays one slide of a sequence at a time.
type SlideViewer interface {
	Show(slides []Slide, index int)
	Hide()
}

// MarkerRenderer renders the markers of one overlay.
type MarkerRenderer interface {
	RenderMarkers(label string, images []Image)
}

// Cluster is a group of nearby images drawn as a single glyph.
type Cluster struct {
	Center Coordinates `json:"center" doc:"Mean position of the members"`
	Count  int         `json:"count" doc:"Number of images in the cluster"`
	Keys   []string    `json:"keys" doc:"Member image keys"`
}

// Clusterer groups images by proximity at a zoom level.
type Clusterer interface {
	Cluster(images []Image, zoom int) []Cluster
}
