// Package app wires the storefront together: configuration, logging, the
// shop API client and the front ends.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/listing"
	"github.com/xenking/kart-storefront/internal/shopapi"
	"github.com/xenking/kart-storefront/internal/tui"
)

// NewClient creates the shop API client described by cfg.
func NewClient(cfg APIConfig) (*shopapi.Client, error) {
	c, err := shopapi.New(cfg.BaseURL,
		shopapi.WithTimeout(cfg.Timeout),
		shopapi.WithAuthorizer(cfg.Authorizer()),
		shopapi.WithTracerProvider(otel.GetTracerProvider()),
		shopapi.WithMeterProvider(otel.GetMeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create api client")
	}
	return c, nil
}

// Run starts the interactive storefront and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, lg *zap.Logger, cfg *Config, opts ...tea.ProgramOption) error {
	lg.Info("Starting storefront", zap.String("api", cfg.API.BaseURL))
	ctx = zctx.Base(ctx, lg)

	client, err := NewClient(cfg.API)
	if err != nil {
		return err
	}

	notifier := tui.NewNotifier()
	ctrl := listing.New(client, client,
		listing.WithLogger(lg.Named("listing")),
		listing.WithClock(clockwork.NewRealClock()),
		listing.WithNotifier(notifier),
		listing.WithAlertMessage(cfg.UI.AlertMessage),
	)
	defer func() {
		if err := ctrl.Close(); err != nil {
			lg.Warn("Close controller", zap.Error(err))
		}
	}()

	model := tui.New(ctx, ctrl, client, notifier, tui.Options{
		CurrencySuffix: cfg.UI.CurrencySuffix,
		Navigator: tui.NavigatorFunc(func(route string) {
			lg.Info("Route requested", zap.String("route", route))
		}),
		Logger: lg.Named("tui"),
	})

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run program")
	}
	lg.Info("Storefront closed")
	return nil
}
