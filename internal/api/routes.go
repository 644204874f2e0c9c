// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/geo"
	"github.com/joeblew999/geophoto/internal/service"
)

// Services holds the dependencies for API handlers.
type Services struct {
	Sessions  *service.SessionService
	Clusterer gallery.Clusterer
	DB        *sql.DB
}

// Types

type TypesFilter struct {
	Types string `query:"types" doc:"Comma-separated type labels to include; all when empty" example:"landscape,city"`
}

// layers returns the visible set for the filter over images.
func (f TypesFilter) layers(images []gallery.Image) *gallery.Layers {
	l := gallery.NewLayers(gallery.TypeLabels(images))
	if strings.TrimSpace(f.Types) == "" {
		return l
	}
	want := map[string]bool{}
	for _, t := range strings.Split(f.Types, ",") {
		want[strings.TrimSpace(t)] = true
	}
	for _, label := range l.Labels() {
		l.Toggle(label, want[label])
	}
	return l
}

type ImagesOutput struct {
	Body []gallery.Image
}

type SlidesInput struct {
	TypesFilter
	Src string `query:"src" doc:"Large image URL to locate in the sequence"`
}

type SlidesBody struct {
	Slides []gallery.Slide `json:"slides" doc:"Slide sequence in collection order"`
	Index  int             `json:"index" doc:"Position of src in slides, -1 when absent or not requested"`
}

type MarkersOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type ClustersInput struct {
	TypesFilter
	Zoom int `query:"zoom" minimum:"0" maximum:"22" default:"2" doc:"Map zoom level"`
}

type TileInput struct {
	TypesFilter
	Z int `path:"z" doc:"Zoom"`
	X int `path:"x" doc:"Tile column"`
	Y int `path:"y" doc:"Tile row"`
}

type TileOutput struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds the REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterCollection registers read-only collection routes.
func (h *APIHandler) RegisterCollection(api huma.API) {
	huma.Get(api, "/api/v1/collection", h.GetCollection, huma.OperationTags("collection"))
	huma.Get(api, "/api/v1/images", h.GetImages, huma.OperationTags("collection"))
	huma.Get(api, "/api/v1/types", h.GetTypes, huma.OperationTags("collection"))
	huma.Get(api, "/api/v1/slides", h.GetSlides, huma.OperationTags("collection"))
	huma.Get(api, "/api/v1/markers", h.GetMarkers, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/clusters", h.GetClusters, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/clusters/geojson", h.GetClustersGeoJSON, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("map"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetCollection(ctx context.Context, input *struct{}) (*struct{ Body service.CollectionStatus }, error) {
	return &struct{ Body service.CollectionStatus }{Body: h.svc.Sessions.Status()}, nil
}

// ready maps the loader state to an HTTP error.
func (h *APIHandler) ready() ([]gallery.Image, error) {
	images, err := h.svc.Sessions.Ready()
	switch {
	case err == nil:
		return images, nil
	case errors.Is(err, service.ErrNotReady):
		return nil, huma.Error503ServiceUnavailable("image collection is still loading")
	default:
		return nil, huma.Error503ServiceUnavailable(gallery.LoadErrorMessage)
	}
}

func (h *APIHandler) GetImages(ctx context.Context, input *TypesFilter) (*ImagesOutput, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	return &ImagesOutput{Body: input.layers(images).Filter(images)}, nil
}

func (h *APIHandler) GetTypes(ctx context.Context, input *struct{}) (*struct{ Body []service.TypeInfo }, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, img := range images {
		counts[img.Type]++
	}
	labels := gallery.TypeLabels(images)
	infos := make([]service.TypeInfo, len(labels))
	for i, label := range labels {
		infos[i] = service.TypeInfo{Label: label, Count: counts[label], Visible: true}
	}
	return &struct{ Body []service.TypeInfo }{Body: infos}, nil
}

func (h *APIHandler) GetSlides(ctx context.Context, input *SlidesInput) (*struct{ Body SlidesBody }, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	slides := gallery.SlideSequence(images, input.layers(images))
	idx := -1
	if input.Src != "" {
		idx = gallery.SlideIndex(slides, input.Src)
	}
	return &struct{ Body SlidesBody }{Body: SlidesBody{Slides: slides, Index: idx}}, nil
}

func (h *APIHandler) GetMarkers(ctx context.Context, input *TypesFilter) (*MarkersOutput, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	data, err := geo.Markers(input.layers(images).Filter(images)).MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to encode markers", err)
	}
	return &MarkersOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetClusters(ctx context.Context, input *ClustersInput) (*struct{ Body []gallery.Cluster }, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	clusters := h.svc.Clusterer.Cluster(input.layers(images).Filter(images), input.Zoom)
	return &struct{ Body []gallery.Cluster }{Body: clusters}, nil
}

// RegisterRoutes registers every REST handler.
func RegisterRoutes(api huma.API, svc *Services, info *InfoHandler) {
	h := NewAPIHandler(svc)
	h.RegisterHealth(api)
	h.RegisterCollection(api)
	info.RegisterRoutes(api)
	NewDBHandler(svc.DB).RegisterRoutes(api)
}

// GetClustersGeoJSON returns the clusters as point features with a count.
func (h *APIHandler) GetClustersGeoJSON(ctx context.Context, input *ClustersInput) (*MarkersOutput, error) {
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	clusters := h.svc.Clusterer.Cluster(input.layers(images).Filter(images), input.Zoom)
	data, err := geo.Clusters(clusters).MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to encode clusters", err)
	}
	return &MarkersOutput{ContentType: "application/geo+json", Body: data}, nil
}

// GetTile serves the markers inside one tile as a Mapbox vector tile, one
// layer per type. Empty tiles answer 204.
func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	tile, err := geo.ParseTile(input.Z, input.X, input.Y)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	images, err := h.ready()
	if err != nil {
		return nil, err
	}
	data, err := geo.VectorTile(input.layers(images).Filter(images), tile)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to encode tile", err)
	}
	if data == nil {
		return &TileOutput{Status: http.StatusNoContent}, nil
	}
	return &TileOutput{Status: http.StatusOK, ContentType: "application/vnd.mapbox-vector-tile", Body: data}, nil
}
