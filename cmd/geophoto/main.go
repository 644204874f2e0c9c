package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geophoto/internal/config"
	"github.com/joeblew999/geophoto/internal/logging"
	"github.com/joeblew999/geophoto/internal/server"
)

// Options defines all CLI flags and env vars for the geophoto server.
// Flags: --host, --port, --config, --api-base, --web-dir, --watch, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_API_BASE, ...
type Options struct {
	Host     string `doc:"Host to bind to"`
	Port     int    `doc:"Port to listen on" short:"p"`
	Config   string `doc:"Path to a TOML config file" short:"c"`
	APIBase  string `doc:"Base URL of the image CMS, e.g. http://localhost:1337"`
	WebDir   string `doc:"Path to web/ directory"`
	Watch    bool   `doc:"Reload templates when they change"`
	LogLevel string `doc:"Log level (debug, info, warn, error)"`
}

// loadConfig layers defaults, the config file and the command line.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	cfg.Merge(&config.Config{
		Server:  config.ServerConfig{Host: opts.Host, Port: opts.Port, WebDir: opts.WebDir, Watch: opts.Watch},
		CMS:     config.CMSConfig{BaseURL: opts.APIBase},
		Logging: logging.Config{Level: logging.Level(opts.LogLevel)},
	})
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newServer(opts *Options) (*server.Server, *config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	srv, err := server.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return srv, cfg, logger, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			httpServer *http.Server
			cancel     context.CancelFunc
			srv        *server.Server
		)

		hooks.OnStart(func() {
			var (
				cfg    *config.Config
				logger *slog.Logger
				err    error
			)
			srv, cfg, logger, err = newServer(opts)
			if err != nil {
				fatal(err)
			}

			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			srv.Start(ctx)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			displayHost := cfg.Server.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, cfg.Server.Port)

			fmt.Println()
			fmt.Printf("geophoto server starting...\n")
			fmt.Printf("  Map:     %s/\n", baseURL)
			fmt.Printf("  CMS:     %s%s\n", cfg.CMS.BaseURL, cfg.CMS.Path)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("server error", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if cancel != nil {
				cancel()
			}
			if httpServer != nil {
				ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				httpServer.Shutdown(ctx)
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "geophoto"
	cli.Root().Short = "Map of geotagged images from a headless CMS"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, _, _, err := newServer(opts)
			if err != nil {
				fatal(err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// config subcommand: print the effective configuration
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				fatal(err)
			}
			fmt.Println(string(out))
		}),
	}
	cli.Root().AddCommand(configCmd)

	cli.Run()
}
