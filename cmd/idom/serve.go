package main

import (
	stderrors "errors"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/config"
	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/internal/sample"
	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/server"
	"github.com/vango-dev/idom/pkg/session"
	"github.com/vango-dev/idom/pkg/upload"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		address    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sample application",
		Long: `Run the sample application with the settings from idom.yaml.

idom.yaml is looked up in the working directory and its parents unless
--config names a file. Without one the defaults are used.

Examples:
  idom serve
  idom serve --address=:9000
  idom serve --config=deploy/idom.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.web.Run(cmd.Context()); err != nil {
				if stderrors.Is(err, syscall.EADDRINUSE) {
					return errors.New("E200").WithDetail(cfg.Server.Address).Wrap(err)
				}
				return errors.New("E201").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: idom.yaml in the working directory or a parent)")
	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (overrides server.address)")
	return cmd
}

// loadConfig reads path, or finds idom.yaml from the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dir, err := config.Find(wd)
	if err != nil {
		if stderrors.Is(err, errors.New("E100")) {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(dir)
}

// app is the sample application wired from a configuration.
type app struct {
	web    *server.SimpleWebServer
	logger *slog.Logger
	closer []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{logger: cfg.Logger()}

	webOpts := []server.WebOption{
		server.WithTitle(cfg.Server.Title),
		server.WithMetricsEndpoint(cfg.Server.Metrics),
		server.WithServerOptions(
			server.WithLogger(a.logger),
			server.WithLayoutOptions(layout.WithMaxDepth(cfg.Layout.MaxDepth)),
		),
	}

	sessions, err := a.sessions(cfg.Sessions)
	if err != nil {
		a.close()
		return nil, err
	}
	if sessions != nil {
		webOpts = append(webOpts, server.WithSessions(sessions))
	}

	sink, err := a.sink(cfg.Uploads)
	if err != nil {
		a.close()
		return nil, err
	}
	if sink != nil {
		webOpts = append(webOpts, server.WithUploadSink(sink))
	}

	a.web = server.NewSimpleWebServer(sample.Root(sink), cfg.ServerConfig(), webOpts...)
	return a, nil
}

func (a *app) sessions(cfg config.SessionConfig) (*session.Manager, error) {
	var store session.Store
	switch cfg.Store {
	case "":
		return nil, nil
	case "memory":
		store = session.NewMemoryStore()
	case "sqlite":
		sq, err := session.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, errors.New("E250").WithLocation(cfg.Path, 0, 0).Wrap(err)
		}
		a.closer = append(a.closer, sq.Close)
		store = sq
	}
	return session.NewManager(store,
		session.WithTTL(cfg.TTL.Std()),
		session.WithLogger(a.logger),
	), nil
}

func (a *app) sink(cfg config.UploadConfig) (upload.Sink, error) {
	switch cfg.Sink {
	case "disk":
		sink, err := upload.NewDiskSink(cfg.Dir, cfg.MaxSize)
		if err != nil {
			return nil, errors.New("E251").WithLocation(cfg.Dir, 0, 0).Wrap(err)
		}
		return sink, nil
	case "s3":
		s3c := cfg.S3
		client := upload.NewS3Client(s3c.Region, s3c.Endpoint, s3c.AccessKey, s3c.SecretKey)
		return upload.NewS3Sink(client, s3c.Bucket, s3c.Prefix, cfg.MaxSize), nil
	}
	return nil, nil
}

func (a *app) close() {
	for _, fn := range a.closer {
		if err := fn(); err != nil {
			a.logger.Error("close failed", "error", err)
		}
	}
}
