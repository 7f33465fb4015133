package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/propertyfriends/pf-engine/api"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/integrations"
	"github.com/propertyfriends/pf-engine/notify"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and job scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			noSchedule, _ := cmd.Flags().GetBool("no-schedule")
			return a.serve(cmd.Context(), !noSchedule)
		},
	}
	cmd.Flags().Int("port", 8080, "HTTP server port")
	cmd.Flags().Bool("no-schedule", false, "do not run scheduled jobs in-process")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context, schedule bool) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	h, err := a.newHandler(st)
	if err != nil {
		return err
	}
	router := api.NewRouter(h, api.RouterOptions{
		CORSOrigins: a.cfg.Server.CORSOrigins,
		CronSecret:  a.cfg.Auth.CronSecret,
	})

	sched, err := api.NewScheduler(h, a.scheduleConfig(schedule), a.logger)
	if err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			<-sched.Stop().Done()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("server shutdown incomplete")
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		a.logger.Warn("scheduled job still running at shutdown")
	}
	a.logger.Info("server stopped")
	return nil
}

// newHandler wires the API handler to s with notifications, the configured
// rate table and the OAuth2 integrations.
func (a *app) newHandler(s store.Store) (*api.Handler, error) {
	calc, err := a.cfg.Calculator()
	if err != nil {
		return nil, err
	}
	rate, err := a.cfg.AgencyRate()
	if err != nil {
		return nil, err
	}
	return api.NewHandler(api.Deps{
		Store:        s,
		Pricing:      calc,
		Detector:     a.newDetector(s),
		Integrations: integrations.NewFactory(a.cfg.Integrations()),
		AgencyRate:   rate,
		Registration: a.cfg.Claims.RegistrationNumber,
		Logger:       a.logger,
	}), nil
}

func (a *app) newDetector(s store.Store) *exceptions.Detector {
	notifier := notify.New(a.cfg.EmailConfig(), a.logger)
	return exceptions.NewDetector(s, s, a.cfg.DetectionConfig(), a.logger, exceptions.WithNotifier(notifier))
}

func (a *app) scheduleConfig(enabled bool) api.ScheduleConfig {
	return api.ScheduleConfig{
		Enabled:         enabled && a.cfg.Schedule.Enabled,
		ExceptionCheck:  a.cfg.Schedule.ExceptionCheck,
		PaymentFollowup: a.cfg.Schedule.PaymentFollowup,
		MonthlyCycle:    a.cfg.Schedule.MonthlyCycle,
		Location:        a.cfg.Location(),
	}
}
