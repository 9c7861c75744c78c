package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/messaging"
	"github.com/jonathan/interview-insights/internal/service"
	"github.com/jonathan/interview-insights/internal/types"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process submissions from the NATS queue",
	Long: `Queue-subscribe to SUBMIT_SUBJECT and run every submission through the pipeline.
Processed records are stored and announced on PROCESSED_SUBJECT.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// submitFunc adapts the service to the subscriber, logging each outcome.
func submitFunc(svc *service.Service, log *zap.Logger) messaging.SubmitFunc {
	return func(ctx context.Context, sub *types.RawSubmission) error {
		res, err := svc.Submit(ctx, sub)
		if err != nil {
			return err
		}
		log.Info("Processed queued submission",
			zap.String("id", res.ID),
			zap.Bool("nlp_processed", res.NLPProcessed),
		)
		return nil
	}
}

func newSubscriber(lc fx.Lifecycle, nc *nats.Conn, svc *service.Service, cfg *config.Config, log *zap.Logger) *messaging.Subscriber {
	sub := messaging.NewSubscriber(log, nc, cfg.SubmitSubject, submitFunc(svc, log))
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return sub.Start() },
		OnStop:  func(context.Context) error { return sub.Stop() },
	})
	return sub
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := fx.New(
		baseOptions(cfg),
		fx.Provide(
			newNATS,
			newPublisher,
			newSubscriber,
		),
		fx.Invoke(func(*messaging.Subscriber) {}),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runApp(ctx, app)
}
