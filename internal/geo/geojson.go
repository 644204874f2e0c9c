package geo

import (
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/richtext"
)

// Markers encodes images as a GeoJSON FeatureCollection of points. Feature
// properties carry what the popup and the marker icon need.
func Markers(images []gallery.Image) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, img := range images {
		f := geojson.NewFeature(Point(img.Coordinates))
		f.ID = img.Key()
		f.Properties["key"] = img.Key()
		f.Properties["id"] = img.ID
		f.Properties["locationName"] = img.LocationName
		f.Properties["type"] = img.Type
		f.Properties["icon"] = img.Variants.Small
		f.Properties["large"] = img.Variants.Large
		f.Properties["description"] = string(richtext.HTML(img.Description))
		fc.Append(f)
	}
	if b, ok := Bounds(images); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}

// Clusters encodes clusters as point features with a count property.
func Clusters(clusters []gallery.Cluster) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range clusters {
		f := geojson.NewFeature(Point(c.Center))
		f.Properties["count"] = c.Count
		f.Properties["keys"] = c.Keys
		fc.Append(f)
	}
	return fc
}

// MarkerRenderer collects one FeatureCollection per overlay. It satisfies
// gallery.MarkerRenderer.
type MarkerRenderer struct {
	Overlays map[string]*geojson.FeatureCollection
	Order    []string
}

// NewMarkerRenderer returns an empty renderer.
func NewMarkerRenderer() *MarkerRenderer {
	return &MarkerRenderer{Overlays: map[string]*geojson.FeatureCollection{}}
}

var _ gallery.MarkerRenderer = (*MarkerRenderer)(nil)

// RenderMarkers stores the markers of one overlay.
func (r *MarkerRenderer) RenderMarkers(label string, images []gallery.Image) {
	if _, ok := r.Overlays[label]; !ok {
		r.Order = append(r.Order, label)
	}
	r.Overlays[label] = Markers(images)
}
