package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vccd/internal/api"
	"github.com/samcharles93/vccd/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr            string
		readTimeout     time.Duration
		maxSourceBytes  int64
		allowCollisions bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the caption compile API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-source-bytes",
				Usage:       "largest accepted request body",
				Value:       api.DefaultMaxSourceBytes,
				Destination: &maxSourceBytes,
			},
			&cli.BoolFlag{
				Name:        "allow-collisions",
				Usage:       "default for requests that do not set allow_collisions",
				Destination: &allowCollisions,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &allowCollisions)

			server := api.NewServer(log, api.Config{
				AllowCollisions: allowCollisions,
				MaxSourceBytes:  maxSourceBytes,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
