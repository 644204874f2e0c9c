package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	cmsEndpoint string
	dbOK        bool
}

func NewInfoHandler(cmsEndpoint string, dbOK bool) *InfoHandler {
	return &InfoHandler{cmsEndpoint: cmsEndpoint, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	CMS      string   `json:"cms" doc:"Image collection endpoint"`
	DB       bool     `json:"db" doc:"Whether the SQL view of the collection is available"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "geophoto",
		Version:  "0.1.0",
		CMS:      h.cmsEndpoint,
		DB:       h.dbOK,
		Features: []string{"layers", "lightbox", "clusters", "geojson", "duckdb"},
	}}, nil
}
