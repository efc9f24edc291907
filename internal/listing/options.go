package listing

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultAlertMessage is shown after a product was added to the cart.
const DefaultAlertMessage = "Product added to cart"

// Notifier surfaces failures the user has to acknowledge. It is used for
// failed mutations only; read failures are logged and otherwise ignored.
type Notifier interface {
	NotifyError(ctx context.Context, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, err error)

// NotifyError implements Notifier.
func (f NotifierFunc) NotifyError(ctx context.Context, err error) { f(ctx, err) }

type options struct {
	lg             *zap.Logger
	clock          clockwork.Clock
	notifier       Notifier
	alertMessage   string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Controller.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithClock sets the clock driving the alert dismissal timer.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithNotifier sets the receiver of blocking error notifications.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithAlertMessage overrides DefaultAlertMessage.
func WithAlertMessage(msg string) Option {
	return func(o *options) { o.alertMessage = msg }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}
