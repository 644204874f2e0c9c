package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/geophoto/internal/gallery"
)

func img(key string, lat, lng float64, typ string) gallery.Image {
	return gallery.Image{
		DocumentID:  key,
		Type:        typ,
		Coordinates: gallery.Coordinates{Lat: lat, Lng: lng},
		Variants:    gallery.Variants{Large: "L" + key, Small: "S" + key},
	}
}

func TestClusterGroupsNearbyMarkers(t *testing.T) {
	images := []gallery.Image{
		img("paris1", 48.8584, 2.2945, "a"),
		img("tokyo", 35.6762, 139.6503, "b"),
		img("paris2", 48.8606, 2.3376, "a"),
	}
	g := NewGridClusterer()

	clusters := g.Cluster(images, 2)
	if len(clusters) != 2 {
		t.Fatalf("clusters=%d, want 2: %+v", len(clusters), clusters)
	}
	if clusters[0].Count != 2 || clusters[0].Keys[0] != "paris1" || clusters[0].Keys[1] != "paris2" {
		t.Fatalf("first cluster=%+v", clusters[0])
	}
	wantLat := (48.8584 + 48.8606) / 2
	if math.Abs(clusters[0].Center.Lat-wantLat) > 1e-9 {
		t.Fatalf("center lat=%v, want %v", clusters[0].Center.Lat, wantLat)
	}
	if clusters[1].Count != 1 || clusters[1].Keys[0] != "tokyo" {
		t.Fatalf("second cluster=%+v", clusters[1])
	}
}

func TestClusterSplitsAtHighZoom(t *testing.T) {
	images := []gallery.Image{
		img("paris1", 48.8584, 2.2945, "a"),
		img("paris2", 48.8606, 2.3376, "a"),
	}
	g := NewGridClusterer()

	if got := len(g.Cluster(images, 14)); got != 2 {
		t.Fatalf("zoom 14 clusters=%d, want 2", got)
	}
	if got := len(g.Cluster(images, g.MaxZoom)); got != 2 {
		t.Fatalf("max zoom clusters=%d, want 2", got)
	}
}

func TestClusterEmpty(t *testing.T) {
	if got := NewGridClusterer().Cluster(nil, 3); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestPointClampsLatitude(t *testing.T) {
	p := Point(gallery.Coordinates{Lat: 90, Lng: 10})
	if p.Lat() != maxLat || p.Lon() != 10 {
		t.Fatalf("point=%v", p)
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Fatal("bounds of nothing")
	}
	b, ok := Bounds([]gallery.Image{img("x", 10, 20, "a"), img("y", -5, 40, "a")})
	if !ok {
		t.Fatal("no bounds")
	}
	if b.Min.Lat() != -5 || b.Max.Lat() != 10 || b.Min.Lon() != 20 || b.Max.Lon() != 40 {
		t.Fatalf("bounds=%v", b)
	}
}

func TestMarkers(t *testing.T) {
	fc := Markers([]gallery.Image{img("x", 10, 20, "a")})
	if len(fc.Features) != 1 {
		t.Fatalf("features=%d", len(fc.Features))
	}
	f := fc.Features[0]
	if f.Properties["large"] != "Lx" || f.Properties["icon"] != "Sx" || f.Properties["type"] != "a" {
		t.Fatalf("properties=%v", f.Properties)
	}
}

func TestMarkerRendererKeepsOverlayOrder(t *testing.T) {
	s := gallery.NewSynchronizer([]gallery.Image{
		img("1", 0, 0, "b"),
		img("2", 0, 0, "a"),
		img("3", 0, 0, "b"),
	})
	r := NewMarkerRenderer()
	s.Overlays(r)

	if len(r.Order) != 2 || r.Order[0] != "b" || r.Order[1] != "a" {
		t.Fatalf("order=%v", r.Order)
	}
	if n := len(r.Overlays["b"].Features); n != 2 {
		t.Fatalf("b features=%d, want 2", n)
	}
}

func TestVectorTile(t *testing.T) {
	images := []gallery.Image{
		{ID: 1, DocumentID: "d1", Type: "city", Coordinates: gallery.Coordinates{Lat: 38.72, Lng: -9.14}},
		{ID: 2, DocumentID: "d2", Type: "landscape", Coordinates: gallery.Coordinates{Lat: 46.5, Lng: 9.8}},
		{ID: 3, DocumentID: "d3", Type: "city", Coordinates: gallery.Coordinates{Lat: 41.15, Lng: -8.61}},
	}

	world, err := ParseTile(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	data, err := VectorTile(images, world)
	if err != nil {
		t.Fatal(err)
	}
	layers, err := mvt.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 2 || layers[0].Name != "city" || layers[1].Name != "landscape" {
		t.Fatalf("layers=%v", layers)
	}
	if n := len(layers[0].Features); n != 2 {
		t.Fatalf("city features=%d, want 2", n)
	}

	// 1/0/1 is the south-west quadrant; nothing there.
	empty, _ := ParseTile(1, 0, 1)
	if data, err := VectorTile(images, empty); err != nil || data != nil {
		t.Fatalf("empty tile data=%v err=%v", data, err)
	}
}

func TestVectorTileEdges(t *testing.T) {
	corner := func(x, y int) maptile.Tile {
		tile, err := ParseTile(1, x, y)
		if err != nil {
			t.Fatal(err)
		}
		return tile
	}
	se := corner(1, 1).Bound()
	sw := corner(0, 1).Bound()

	tests := []struct {
		name string
		at   gallery.Coordinates
		x, y int
	}{
		{"meridian and equator", gallery.Coordinates{Lat: se.Max.Y, Lng: se.Min.X}, 1, 1},
		{"equator in the west", gallery.Coordinates{Lat: sw.Max.Y, Lng: -90}, 0, 1},
		{"west edge of the world", gallery.Coordinates{Lat: 10, Lng: sw.Min.X}, 0, 0},
		{"east edge of the world", gallery.Coordinates{Lat: 10, Lng: se.Max.X}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := []gallery.Image{{ID: 1, Type: "a", Coordinates: tt.at}}
			hits := 0
			for x := 0; x < 2; x++ {
				for y := 0; y < 2; y++ {
					data, err := VectorTile(images, corner(x, y))
					if err != nil {
						t.Fatal(err)
					}
					if data == nil {
						continue
					}
					hits++
					if x != tt.x || y != tt.y {
						t.Errorf("encoded in 1/%d/%d, want 1/%d/%d", x, y, tt.x, tt.y)
					}
				}
			}
			if hits != 1 {
				t.Fatalf("encoded in %d tiles, want 1", hits)
			}
		})
	}
}

func TestParseTile(t *testing.T) {
	tests := []struct {
		z, x, y int
		ok      bool
	}{
		{0, 0, 0, true},
		{2, 3, 3, true},
		{2, 4, 0, false},
		{-1, 0, 0, false},
		{23, 0, 0, false},
	}
	for _, tt := range tests {
		_, err := ParseTile(tt.z, tt.x, tt.y)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTile(%d,%d,%d) err=%v", tt.z, tt.x, tt.y, err)
		}
	}
}
