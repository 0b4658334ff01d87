package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/tui"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/web"
)

var (
	listen    string
	serveLive bool
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the line and expose it over http and websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveLive, "live", false, "print a plain live view to stdout")
	return serveCmd
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = listen
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	if logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signalContext()
	defer cancel()

	l := newLine(cfg, logger)
	if serveLive {
		l.updater.Subscribe(tui.NewLiveRenderer(os.Stdout, "AQUA-FLOC MAGNA "+cfg.Listen, 1).Plain())
	}
	srv := web.New(l.updater, l.ledger, logger)

	if err := l.updater.Start(ctx); err != nil {
		return err
	}
	defer l.updater.Stop()

	logger.Info("serving", "listen", cfg.Listen, "interval", cfg.Interval, "seed", cfg.Seed)
	return srv.Run(ctx, cfg.Listen)
}
