package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/geophoto/internal/db"
	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/geo"
	"github.com/joeblew999/geophoto/internal/service"
)

type staticFetcher struct {
	images []gallery.Image
	err    error
}

func (f staticFetcher) FetchImages(context.Context) ([]gallery.Image, error) {
	return f.images, f.err
}

func sampleImages() []gallery.Image {
	return []gallery.Image{
		{ID: 1, DocumentID: "d1", LocationName: "Lisbon", Type: "city",
			Coordinates: gallery.Coordinates{Lat: 38.72, Lng: -9.14},
			Variants:    gallery.Variants{Small: "s1", Large: "u1"}},
		{ID: 2, DocumentID: "d2", LocationName: "Alps", Type: "landscape",
			Coordinates: gallery.Coordinates{Lat: 46.5, Lng: 9.8},
			Variants:    gallery.Variants{Small: "s2", Large: "u2"}},
		{ID: 3, DocumentID: "d3", LocationName: "Porto", Type: "city",
			Coordinates: gallery.Coordinates{Lat: 41.15, Lng: -8.61},
			Variants:    gallery.Variants{Small: "s3", Large: "u3"}},
	}
}

func newTestAPI(t *testing.T, f gallery.Fetcher, load bool) (humatest.TestAPI, *Services) {
	t.Helper()
	loader := gallery.NewLoader(f, nil)
	if load {
		loader.Load(context.Background())
	}
	svc := &Services{
		Sessions:  service.NewSessionService(loader, nil, true, nil),
		Clusterer: geo.NewGridClusterer(),
	}
	cfg := huma.DefaultConfig("geophoto API", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, svc, NewInfoHandler("http://cms/api/images?populate=*", false))
	return api, svc
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestHealthAndInfo(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{}, false)

	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("health status=%d", resp.Code)
	}
	if got := decode[HealthBody](t, resp.Body.Bytes()); got.Status != "ok" {
		t.Fatalf("health=%+v", got)
	}
	if links := resp.Header().Values("Link"); len(links) == 0 {
		t.Fatal("expected Link headers on /health")
	}

	info := decode[InfoBody](t, api.Get("/api/v1/info").Body.Bytes())
	if info.Name != "geophoto" || info.DB {
		t.Fatalf("info=%+v", info)
	}
}

func TestCollectionNotReady(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, false)

	for _, path := range []string{"/api/v1/images", "/api/v1/types", "/api/v1/markers", "/api/v1/slides", "/api/v1/clusters"} {
		if resp := api.Get(path); resp.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status=%d, want 503", path, resp.Code)
		}
	}
	st := decode[service.CollectionStatus](t, api.Get("/api/v1/collection").Body.Bytes())
	if st.Status != gallery.StatusLoading {
		t.Fatalf("status=%q, want loading", st.Status)
	}
}

func TestCollectionLoadFailure(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{err: errors.New("connection refused")}, true)

	resp := api.Get("/api/v1/images")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), gallery.LoadErrorMessage) {
		t.Fatalf("body=%s", resp.Body.String())
	}
	st := decode[service.CollectionStatus](t, api.Get("/api/v1/collection").Body.Bytes())
	if st.Status != gallery.StatusError || st.Message != gallery.LoadErrorMessage {
		t.Fatalf("status=%+v", st)
	}
}

func TestImagesFilter(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	all := decode[[]gallery.Image](t, api.Get("/api/v1/images").Body.Bytes())
	if len(all) != 3 {
		t.Fatalf("images=%d, want 3", len(all))
	}

	cities := decode[[]gallery.Image](t, api.Get("/api/v1/images?types=city").Body.Bytes())
	if len(cities) != 2 || cities[0].ID != 1 || cities[1].ID != 3 {
		t.Fatalf("cities=%+v", cities)
	}

	none := decode[[]gallery.Image](t, api.Get("/api/v1/images?types=unknown").Body.Bytes())
	if len(none) != 0 {
		t.Fatalf("unknown filter returned %d images", len(none))
	}
}

func TestTypes(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	types := decode[[]service.TypeInfo](t, api.Get("/api/v1/types").Body.Bytes())
	want := []service.TypeInfo{
		{Label: "city", Count: 2, Visible: true},
		{Label: "landscape", Count: 1, Visible: true},
	}
	if len(types) != len(want) {
		t.Fatalf("types=%+v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d]=%+v, want %+v", i, types[i], want[i])
		}
	}
}

func TestSlides(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	tests := []struct {
		name  string
		path  string
		srcs  []string
		index int
	}{
		{"all", "/api/v1/slides?src=u2", []string{"u1", "u2", "u3"}, 1},
		{"filtered", "/api/v1/slides?types=city&src=u3", []string{"u1", "u3"}, 1},
		{"miss", "/api/v1/slides?types=city&src=u2", []string{"u1", "u3"}, -1},
		{"no src", "/api/v1/slides", []string{"u1", "u2", "u3"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decode[SlidesBody](t, api.Get(tt.path).Body.Bytes())
			if got.Index != tt.index {
				t.Errorf("index=%d, want %d", got.Index, tt.index)
			}
			if len(got.Slides) != len(tt.srcs) {
				t.Fatalf("slides=%+v", got.Slides)
			}
			for i, s := range got.Slides {
				if s.Src != tt.srcs[i] {
					t.Errorf("slides[%d]=%q, want %q", i, s.Src, tt.srcs[i])
				}
			}
		})
	}
}

func TestMarkers(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	resp := api.Get("/api/v1/markers?types=landscape")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content-type=%q", ct)
	}
	fc := decode[struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}](t, resp.Body.Bytes())
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 || len(fc.BBox) != 4 {
		t.Fatalf("fc=%+v", fc)
	}
	f := fc.Features[0]
	if f.Geometry.Coordinates[0] != 9.8 || f.Geometry.Coordinates[1] != 46.5 {
		t.Fatalf("coordinates=%v, want [lng lat]", f.Geometry.Coordinates)
	}
	if f.Properties["icon"] != "s2" || f.Properties["large"] != "u2" {
		t.Fatalf("properties=%v", f.Properties)
	}
}

func TestClusters(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	world := decode[[]gallery.Cluster](t, api.Get("/api/v1/clusters?zoom=0").Body.Bytes())
	total := 0
	for _, c := range world {
		total += c.Count
	}
	if total != 3 || len(world) >= 3 {
		t.Fatalf("zoom 0 clusters=%+v, want fewer than 3 groups covering 3 images", world)
	}

	street := decode[[]gallery.Cluster](t, api.Get("/api/v1/clusters?zoom=18").Body.Bytes())
	if len(street) != 3 {
		t.Fatalf("zoom 18 clusters=%d, want 3", len(street))
	}

	gj := decode[struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}](t, api.Get("/api/v1/clusters/geojson?zoom=0").Body.Bytes())
	if len(gj.Features) != len(world) {
		t.Fatalf("geojson clusters=%d, want %d", len(gj.Features), len(world))
	}

	if resp := api.Get("/api/v1/clusters?zoom=40"); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zoom 40 status=%d, want 422", resp.Code)
	}
}

func TestDBUnavailable(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{}, false)
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("tables status=%d, want 503", resp.Code)
	}
	if resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT 1"}); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("query status=%d, want 503", resp.Code)
	}
}

func TestDBQuery(t *testing.T) {
	conn, err := db.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := db.LoadImages(context.Background(), conn, sampleImages()); err != nil {
		t.Fatal(err)
	}

	_, api := humatest.New(t)
	NewDBHandler(conn).RegisterRoutes(api)

	tables := decode[TablesBody](t, api.Get("/api/v1/tables").Body.Bytes())
	if len(tables.Tables) != 1 || tables.Tables[0] != "images" {
		t.Fatalf("tables=%v", tables.Tables)
	}

	resp := api.Post("/api/v1/query", map[string]any{
		"query": "SELECT type, count(*) AS n FROM images GROUP BY type ORDER BY type",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	got := decode[QueryBody](t, resp.Body.Bytes())
	if got.Count != 2 || got.Rows[0]["type"] != "city" {
		t.Fatalf("query=%+v", got)
	}

	if resp := api.Post("/api/v1/query", map[string]any{"query": "SELECT * FROM nope"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad query status=%d, want 400", resp.Code)
	}
	for _, q := range []string{
		"SELECT * FROM read_text('/etc/hostname')",
		"COPY images TO '" + filepath.Join(t.TempDir(), "out.csv") + "'",
	} {
		if resp := api.Post("/api/v1/query", map[string]any{"query": q}); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d, want 400", q, resp.Code)
		}
	}
}

func TestTiles(t *testing.T) {
	api, _ := newTestAPI(t, staticFetcher{images: sampleImages()}, true)

	resp := api.Get("/api/v1/tiles/0/0/0")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/vnd.mapbox-vector-tile" {
		t.Fatalf("content-type=%q", ct)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("empty tile body")
	}

	if resp := api.Get("/api/v1/tiles/1/0/1"); resp.Code != http.StatusNoContent {
		t.Fatalf("empty tile status=%d, want 204", resp.Code)
	}
	if resp := api.Get("/api/v1/tiles/1/5/0"); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad tile status=%d, want 400", resp.Code)
	}
}
