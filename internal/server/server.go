// Package server wires the geophoto HTTP server.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"

	"github.com/joeblew999/geophoto/internal/api"
	"github.com/joeblew999/geophoto/internal/api/viewer"
	"github.com/joeblew999/geophoto/internal/cms"
	"github.com/joeblew999/geophoto/internal/config"
	"github.com/joeblew999/geophoto/internal/db"
	"github.com/joeblew999/geophoto/internal/gallery"
	"github.com/joeblew999/geophoto/internal/geo"
	"github.com/joeblew999/geophoto/internal/service"
	"github.com/joeblew999/geophoto/internal/templates"
)

const (
	sessionTTL = 30 * time.Minute
	sweepEvery = time.Minute
)

// Server is the geophoto HTTP server.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	renderer *templates.Renderer
	client   *cms.Client
	loader   *gallery.Loader
}

// New creates a server for cfg. cfg must be finalized.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("geophoto API", "1.0.0")
	humaConfig.Info.Description = "Map of geotagged images from a headless CMS, with type layers, clusters and a lightbox."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	client, err := cms.New(cms.Config{
		BaseURL: cfg.CMS.BaseURL,
		Path:    cfg.CMS.Path,
		Timeout: cfg.CMS.TimeoutDuration(),
		MaxBody: cfg.CMS.MaxBodyBytes(),
	}, logger)
	if err != nil {
		return nil, err
	}
	loader := gallery.NewLoader(client, logger)

	clusterer := geo.NewGridClusterer()
	clusterer.CellOffset = cfg.Map.ClusterOffset
	clusterer.MaxZoom = cfg.Map.ClusterMax

	conn, err := db.Open()
	if err != nil {
		logger.Warn("duckdb unavailable, SQL endpoints disabled", "error", err)
		conn = nil
	}

	services := &api.Services{
		Sessions:  service.NewSessionService(loader, service.NewEventBus(), cfg.Map.Wrap(), logger),
		Clusterer: clusterer,
		DB:        conn,
	}

	var renderer *templates.Renderer
	templatesDir := filepath.Join(cfg.Server.WebDir, "templates")
	if r, err := templates.New(templatesDir); err == nil {
		renderer = r
		logger.Info("loaded templates", "dir", templatesDir)
	} else {
		logger.Warn("templates unavailable, map page disabled", "dir", templatesDir, "error", err)
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      mux,
		humaAPI:  humaAPI,
		db:       conn,
		services: services,
		renderer: renderer,
		client:   client,
		loader:   loader,
	}
	s.routes()
	return s, nil
}

// Start begins the one-shot collection fetch and the background upkeep. It
// returns immediately; everything stops with ctx.
func (s *Server) Start(ctx context.Context) {
	s.loader.Start(ctx)

	go func() {
		snap, err := s.loader.Wait(ctx)
		if err != nil || s.db == nil {
			return
		}
		if err := db.LoadImages(ctx, s.db, snap.Images); err != nil {
			s.logger.Error("load images into duckdb", "error", err)
			return
		}
		s.logger.Info("duckdb ready", "images", len(snap.Images))
	}()

	go s.services.Sessions.Sweep(ctx, sweepEvery, sessionTTL)

	if s.renderer != nil && s.config.Server.Watch {
		go func() {
			if err := s.renderer.Watch(ctx, s.logger); err != nil {
				s.logger.Warn("template watcher stopped", "error", err)
			}
		}()
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Sessions returns the viewer session service.
func (s *Server) Sessions() *service.SessionService {
	return s.services.Sessions
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services, api.NewInfoHandler(s.client.Endpoint(), s.db != nil))

	if s.renderer != nil {
		viewer.NewHandler(s.services.Sessions, s.renderer, viewer.MapSettings{
			CenterLat:   s.config.Map.CenterLat,
			CenterLng:   s.config.Map.CenterLng,
			Zoom:        s.config.Map.Zoom,
			TileURL:     s.config.Map.TileURL,
			Attribution: s.config.Map.Attribution,
		}).RegisterRoutes(s.humaAPI)
	}

	staticDir := filepath.Join(s.config.Server.WebDir, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	s.mux.HandleFunc("/", s.handleRoot)
}

// PageData feeds map.html.
type PageData struct {
	Title   string
	Session string // resumed session, empty for a new one
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.renderer == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"service": "geophoto",
			"status":  string(s.loader.Snapshot().Status),
		})
		return
	}
	data := PageData{Title: "geophoto"}
	if id, err := uuid.Parse(r.URL.Query().Get("session")); err == nil {
		data.Session = id.String()
	}
	html, err := s.renderer.Render("map.html", data)
	if err != nil {
		s.logger.Error("render map page", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
