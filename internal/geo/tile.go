package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/geophoto/internal/gallery"
)

// MaxTileZoom is the deepest zoom VectorTile accepts.
const MaxTileZoom = 22

// ParseTile validates z/x/y.
func ParseTile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxTileZoom {
		return maptile.Tile{}, fmt.Errorf("zoom %d out of range", z)
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, fmt.Errorf("tile %d/%d/%d out of range", z, x, y)
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// VectorTile encodes the images inside tile as a Mapbox vector tile with one
// layer per type label, in render order. It returns nil when the tile is
// empty.
func VectorTile(images []gallery.Image, tile maptile.Tile) ([]byte, error) {
	bound := tile.Bound()
	byLabel := map[string]*geojson.FeatureCollection{}
	var order []string

	for _, img := range images {
		p := Point(img.Coordinates)
		if !owns(tile, bound, p) {
			continue
		}
		fc, ok := byLabel[img.Type]
		if !ok {
			fc = geojson.NewFeatureCollection()
			byLabel[img.Type] = fc
			order = append(order, img.Type)
		}
		f := geojson.NewFeature(p)
		f.Properties["key"] = img.Key()
		f.Properties["locationName"] = img.LocationName
		f.Properties["icon"] = img.Variants.Small
		f.Properties["large"] = img.Variants.Large
		fc.Append(f)
	}
	if len(order) == 0 {
		return nil, nil
	}

	layers := make(mvt.Layers, 0, len(order))
	for _, label := range order {
		layers = append(layers, mvt.NewLayer(label, byLabel[label]))
	}
	layers.ProjectToTile(tile)
	return mvt.Marshal(layers)
}

// owns reports whether p falls in tile. Edges are half-open in tile index
// order: the west and north edges belong to the tile, the east and south
// edges to its neighbour, except on the edge of the world.
func owns(tile maptile.Tile, bound orb.Bound, p orb.Point) bool {
	last := uint32(1)<<uint(tile.Z) - 1
	if p.X < bound.Min.X || p.X > bound.Max.X || (p.X == bound.Max.X && tile.X != last) {
		return false
	}
	if p.Y > bound.Max.Y || p.Y < bound.Min.Y || (p.Y == bound.Min.Y && tile.Y != last) {
		return false
	}
	return true
}
