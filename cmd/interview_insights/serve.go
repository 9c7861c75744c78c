package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/server"
	"github.com/jonathan/interview-insights/internal/server/ratelimit"
	"github.com/jonathan/interview-insights/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts interview experiences and serves the stored records and stats.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func newLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(ratelimit.LoadConfig())
}

func newHTTPServer(svc *service.Service, limiter *ratelimit.Limiter, cfg *config.Config, log *zap.Logger) *server.Server {
	return server.New(svc, limiter, log, cfg.Addr())
}

func registerServer(lc fx.Lifecycle, srv *server.Server) {
	lc.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Shutdown,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	app := fx.New(
		baseOptions(cfg),
		fx.Provide(
			newOptionalNATS,
			newPublisher,
			newLimiter,
			newHTTPServer,
		),
		fx.Invoke(registerServer),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runApp(ctx, app)
}
