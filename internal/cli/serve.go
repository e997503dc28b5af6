package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/authn"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/jobs"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/notify"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	transport "github.com/16AA-Milsim/discourse-recruit-tracker/internal/transport/http"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			migrate, _ := cmd.Flags().GetBool("migrate")
			if migrate {
				if err := a.store.AutoMigrate(cmd.Context(), a.cfg.MigrateExternal); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().Bool("migrate", false, "Create missing tables before serving")
	return cmd
}

func serve(parent context.Context, a *app) error {
	metrics.MustRegister(serviceName)

	queue := jobs.New(jobs.Config{
		Workers:   a.cfg.JobWorkers,
		QueueSize: a.cfg.JobQueueSize,
		Timeout:   a.cfg.WebhookTimeout + 5*time.Second,
	}, a.log)
	dispatcher := notify.NewDispatcher(a.settings, queue, a.store.Users(), notify.NewWebhookClient(a.cfg.WebhookTimeout), a.log)

	verifier, closeVerifier, err := newVerifier(a)
	if err != nil {
		return err
	}
	defer closeVerifier()

	handler := transport.NewRouter(transport.Deps{
		Service:            a.service(dispatcher),
		Actors:             a.store.Users(),
		Settings:           a.settings,
		Verifier:           verifier,
		CORSOrigins:        a.cfg.CORSOrigins,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		a.log.Info("recruit tracker listening", "addr", srv.Addr, "driver", a.cfg.DatabaseDriver, "auth", verifier.Method())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", "error", err)
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		a.log.Warn("job queue shutdown", "error", err)
	}
	return nil
}

// newVerifier prefers the shared secret when one is configured.
func newVerifier(a *app) (authn.Verifier, func(), error) {
	if a.cfg.AuthHS256Secret != "" {
		return authn.NewHMACVerifier(a.cfg.AuthHS256Secret, a.cfg.AuthIssuer), func() {}, nil
	}
	v, err := authn.NewJWKSVerifier(a.cfg.AuthJWKSURL, a.cfg.AuthIssuer)
	if err != nil {
		return nil, nil, err
	}
	return v, v.Close, nil
}
