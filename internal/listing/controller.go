// Package listing implements the product listing page controller.
//
// A Controller owns the page state: the current catalog page, the derived
// page count, the cart badge counter and the transient success alert. It
// talks to the backend through the product.Catalog and cart.Repository
// interfaces and publishes every state change on a coalescing channel, so a
// single-threaded event loop can re-read the state with Snapshot.
//
// Reads (catalog page, cart summary) run concurrently and independently.
// Their failures are logged and leave the state untouched. Only the latest
// issued read of each kind may apply its result; older responses arriving
// late are dropped. A failed add-to-cart is logged and reported through the
// Notifier.
package listing

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// AlertDuration is how long the success alert stays visible.
const AlertDuration = 3 * time.Second

const instrumentationName = "github.com/xenking/kart-storefront/internal/listing"

// Sentinel errors returned by Controller operations.
var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrClosed         = errors.New("controller closed")
)

// Controller orchestrates the listing page. It is safe for concurrent use.
type Controller struct {
	products product.Catalog
	cart     cart.Repository

	lg           *zap.Logger
	clock        clockwork.Clock
	notifier     Notifier
	alertMessage string
	tracer       trace.Tracer
	addCounter   metric.Int64Counter

	// life is cancelled by Close and bounds every request.
	life    context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	updates chan struct{}

	mu             sync.Mutex
	state          State
	closed         bool
	productSeq     uint64
	cartSeq        uint64
	cancelProducts context.CancelFunc
	alertSeq       uint64
	alertTimer     clockwork.Timer
}

// New creates a Controller. products and carts are usually the same API
// client.
func New(products product.Catalog, carts cart.Repository, opts ...Option) *Controller {
	o := options{alertMessage: DefaultAlertMessage}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lg == nil {
		o.lg = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.notifier == nil {
		o.notifier = NotifierFunc(func(context.Context, error) {})
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	addCounter, err := o.meterProvider.Meter(instrumentationName).Int64Counter("storefront.cart.add",
		metric.WithDescription("Add-to-cart requests by result"),
	)
	if err != nil {
		o.lg.Warn("Create add-to-cart counter", zap.Error(err))
		addCounter = noop.Int64Counter{}
	}

	life, stop := context.WithCancel(context.Background())
	return &Controller{
		products:     products,
		cart:         carts,
		lg:           o.lg,
		clock:        o.clock,
		notifier:     o.notifier,
		alertMessage: o.alertMessage,
		tracer:       o.tracerProvider.Tracer(instrumentationName),
		addCounter:   addCounter,
		life:         life,
		stop:         stop,
		updates:      make(chan struct{}, 1),
		state:        initialState(),
	}
}

// Updates returns a channel that receives a value after the state changed.
// Signals are coalesced: a single receive may stand for several changes.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Start loads the current page and the cart summary. It is the first render
// of the page.
func (c *Controller) Start(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh reloads the current page and the cart summary.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	page := c.state.CurrentPage
	c.mu.Unlock()

	c.load(ctx, page)
	return nil
}

// ChangePage switches to page p (1-based). When the page number actually
// changes, one product fetch for p and one cart summary fetch are issued.
func (c *Controller) ChangePage(ctx context.Context, p int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if p < 1 || p > c.state.TotalPages {
		total := c.state.TotalPages
		c.mu.Unlock()
		return errors.Wrapf(ErrPageOutOfRange, "page %d of %d", p, total)
	}
	if p == c.state.CurrentPage {
		c.mu.Unlock()
		return nil
	}
	c.state.CurrentPage = p
	c.mu.Unlock()

	c.changed()
	c.load(ctx, p)
	return nil
}

// AddToCart adds one unit of the product to the cart in the background.
// Calls are independent: repeated calls issue concurrent requests.
func (c *Controller) AddToCart(ctx context.Context, id product.ID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go c.addToCart(ctx, id)
	return nil
}

// Wait blocks until all in-flight requests have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests, stops the alert timer and waits for the
// background work to finish. Further operations return ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.alertTimer != nil {
		c.alertTimer.Stop()
		c.alertTimer = nil
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
	return nil
}

func (c *Controller) load(ctx context.Context, page int) {
	c.fetchProducts(ctx, page)
	c.fetchCart(ctx)
}

func (c *Controller) fetchProducts(ctx context.Context, page int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.productSeq++
	seq := c.productSeq
	if c.cancelProducts != nil {
		c.cancelProducts()
	}
	parent := ctx
	ctx, cancel := c.opContext(ctx)
	c.cancelProducts = cancel
	c.state.LoadingProducts = true
	c.wg.Add(1)
	c.mu.Unlock()
	c.changed()

	go func() {
		defer c.wg.Done()
		defer cancel()

		ctx, span := c.tracer.Start(ctx, "listing.FetchProducts",
			trace.WithAttributes(attribute.Int("page", page)),
		)
		defer span.End()

		res, err := c.products.List(ctx, page, product.PageSize)

		c.mu.Lock()
		if seq != c.productSeq {
			c.mu.Unlock()
			c.lg.Debug("Dropping stale product page", zap.Int("page", page))
			return
		}
		c.state.LoadingProducts = false
		c.cancelProducts = nil
		refetch := 0
		if err == nil {
			c.state.Products = res.Products
			c.state.TotalPages = product.TotalPages(res.Count)
			// The catalog shrank below the current page.
			if c.state.CurrentPage > c.state.TotalPages {
				c.state.CurrentPage = c.state.TotalPages
				refetch = c.state.CurrentPage
			}
		}
		c.mu.Unlock()
		c.changed()

		if err != nil {
			recordError(span, err)
			c.logReadError("Fetch products failed", err, zap.Int("page", page))
			return
		}
		if refetch > 0 {
			c.lg.Debug("Current page out of range, moving to last page",
				zap.Int("page", page),
				zap.Int("last_page", refetch),
			)
			c.fetchProducts(parent, refetch)
		}
	}()
}

func (c *Controller) fetchCart(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.cartSeq++
	seq := c.cartSeq
	ctx, cancel := c.opContext(ctx)
	c.state.LoadingCart = true
	c.wg.Add(1)
	c.mu.Unlock()
	c.changed()

	go func() {
		defer c.wg.Done()
		defer cancel()

		ctx, span := c.tracer.Start(ctx, "listing.FetchCartSummary")
		defer span.End()

		summary, err := c.cart.Summary(ctx)

		c.mu.Lock()
		if seq != c.cartSeq {
			c.mu.Unlock()
			c.lg.Debug("Dropping stale cart summary")
			return
		}
		c.state.LoadingCart = false
		if err == nil {
			c.state.CartItemCount = summary.ItemCount()
		}
		c.mu.Unlock()
		c.changed()

		if err != nil {
			recordError(span, err)
			c.logReadError("Fetch cart summary failed", err)
		}
	}()
}

func (c *Controller) addToCart(ctx context.Context, id product.ID) {
	defer c.wg.Done()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "listing.AddToCart",
		trace.WithAttributes(attribute.String("product.id", id.String())),
	)
	defer span.End()

	if err := c.cart.Add(ctx, id, 1); err != nil {
		recordError(span, err)
		c.addCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))

		fields := []zap.Field{zap.Stringer("product_id", id), zap.Error(err)}
		var p interface{ ResponseBody() []byte }
		if errors.As(err, &p) && len(p.ResponseBody()) > 0 {
			fields = append(fields, zap.ByteString("payload", p.ResponseBody()))
		}
		c.lg.Error("Add to cart failed", fields...)

		if c.life.Err() == nil {
			c.notifier.NotifyError(ctx, err)
		}
		return
	}
	c.addCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.CartItemCount++
	c.showAlertLocked()
	c.mu.Unlock()
	c.changed()
}

// showAlertLocked makes the success alert visible and schedules its
// dismissal, replacing any earlier schedule. c.mu must be held.
func (c *Controller) showAlertLocked() {
	if c.alertTimer != nil {
		c.alertTimer.Stop()
	}
	c.alertSeq++
	id := c.alertSeq
	c.state.Alert = Alert{Visible: true, Message: c.alertMessage, ID: id}
	c.alertTimer = c.clock.AfterFunc(AlertDuration, func() {
		c.dismissAlert(id)
	})
}

// dismissAlert hides the alert if it is still the one created with id.
func (c *Controller) dismissAlert(id uint64) {
	c.mu.Lock()
	if c.closed || c.state.Alert.ID != id || !c.state.Alert.Visible {
		c.mu.Unlock()
		return
	}
	c.state.Alert.Visible = false
	c.alertTimer = nil
	c.mu.Unlock()
	c.changed()
}

// opContext derives a request context from ctx that is also cancelled when
// the controller is closed.
func (c *Controller) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) changed() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) logReadError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, context.Canceled) {
		c.lg.Debug(msg, fields...)
		return
	}
	c.lg.Warn(msg, fields...)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
