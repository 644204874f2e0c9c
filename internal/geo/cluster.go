// Package geo holds the geometry side of the viewer: proximity clustering of
// markers and GeoJSON encoding, built on paulmach/orb.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"

	"github.com/joeblew999/geophoto/internal/gallery"
)

// maxLat is the latitude limit of the web mercator projection.
const maxLat = 85.05112878

// GridClusterer buckets markers into map tiles a few levels below the view
// zoom, so one cell spans roughly 256 >> CellOffset screen pixels.
type GridClusterer struct {
	// CellOffset is how many zoom levels finer than the view the grid is.
	CellOffset int
	// MaxZoom is the zoom at and above which every marker stands alone.
	MaxZoom int
}

// NewGridClusterer returns a clusterer with 64px cells that stops clustering
// at zoom 18.
func NewGridClusterer() *GridClusterer {
	return &GridClusterer{CellOffset: 2, MaxZoom: 18}
}

var _ gallery.Clusterer = (*GridClusterer)(nil)

// Cluster groups images sharing a grid cell. Clusters are ordered by the
// position of their first member in images.
func (g *GridClusterer) Cluster(images []gallery.Image, zoom int) []gallery.Cluster {
	if zoom < 0 {
		zoom = 0
	}

	if zoom >= g.MaxZoom {
		out := make([]gallery.Cluster, 0, len(images))
		for _, img := range images {
			out = append(out, gallery.Cluster{Center: img.Coordinates, Count: 1, Keys: []string{img.Key()}})
		}
		return out
	}

	cellZoom := zoom + g.CellOffset
	if cellZoom > 22 {
		cellZoom = 22
	}

	type bucket struct {
		points orb.MultiPoint
		keys   []string
	}
	var order []maptile.Tile
	buckets := map[maptile.Tile]*bucket{}

	for _, img := range images {
		p := Point(img.Coordinates)
		t := maptile.At(p, maptile.Zoom(cellZoom))
		b, ok := buckets[t]
		if !ok {
			b = &bucket{}
			buckets[t] = b
			order = append(order, t)
		}
		b.points = append(b.points, p)
		b.keys = append(b.keys, img.Key())
	}

	out := make([]gallery.Cluster, 0, len(order))
	for _, t := range order {
		b := buckets[t]
		center, _ := planar.CentroidArea(b.points)
		out = append(out, gallery.Cluster{
			Center: gallery.Coordinates{Lat: center.Lat(), Lng: center.Lon()},
			Count:  len(b.points),
			Keys:   b.keys,
		})
	}
	return out
}

// Point converts coordinates to an orb point, clamping latitude to what the
// map can display.
func Point(c gallery.Coordinates) orb.Point {
	lat := c.Lat
	if lat > maxLat {
		lat = maxLat
	} else if lat < -maxLat {
		lat = -maxLat
	}
	return orb.Point{c.Lng, lat}
}

// Bounds returns the bounding box of images, or false when there are none.
func Bounds(images []gallery.Image) (orb.Bound, bool) {
	if len(images) == 0 {
		return orb.Bound{}, false
	}
	b := Point(images[0].Coordinates).Bound()
	for _, img := range images[1:] {
		b = b.Extend(Point(img.Coordinates))
	}
	return b, true
}
