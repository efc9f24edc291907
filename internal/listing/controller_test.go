package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// --- Fakes ---

type fakeShop struct {
	mu           sync.Mutex
	pages        map[int]*product.Page
	summary      *cart.Summary
	gates        map[int]chan struct{}
	listErr      error
	summaryErr   error
	addErr       error
	listCalls    []int
	pageSizes    []int
	summaryCalls int
	addCalls     []product.ID
}

func (f *fakeShop) List(_ context.Context, page, pageSize int) (*product.Page, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, page)
	f.pageSizes = append(f.pageSizes, pageSize)
	gate := f.gates[page]
	res, err := f.pages[page], f.listErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &product.Page{}, nil
	}
	return res, nil
}

func (f *fakeShop) Summary(_ context.Context) (*cart.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	if f.summary == nil {
		return &cart.Summary{}, nil
	}
	return f.summary, nil
}

func (f *fakeShop) Add(_ context.Context, id product.ID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quantity != 1 {
		return fmt.Errorf("unexpected quantity %d", quantity)
	}
	f.addCalls = append(f.addCalls, id)
	return f.addErr
}

func (f *fakeShop) set(fn func(f *fakeShop)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeShop) calls() (list []int, summary int, adds []product.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.listCalls...), f.summaryCalls, append([]product.ID(nil), f.addCalls...)
}

func (f *fakeShop) resetCalls() {
	f.set(func(f *fakeShop) {
		f.listCalls = nil
		f.pageSizes = nil
		f.summaryCalls = 0
		f.addCalls = nil
	})
}

type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

// payloadError mimics an API error carrying a response body.
type payloadError struct{ body []byte }

func (e *payloadError) Error() string        { return "rejected" }
func (e *payloadError) ResponseBody() []byte { return e.body }

// --- Helpers ---

func makePage(prefix string, n, count int) *product.Page {
	p := &product.Page{Count: count}
	for i := range n {
		p.Products = append(p.Products, product.Product{
			ID:    product.StringID(fmt.Sprintf("%s-%d", prefix, i)),
			Name:  fmt.Sprintf("%s product %d", prefix, i),
			Price: decimal.NewFromInt(int64(10 + i)),
		})
	}
	return p
}

func newShop() *fakeShop {
	return &fakeShop{
		pages: map[int]*product.Page{
			1: makePage("p1", product.PageSize, 30),
			2: makePage("p2", product.PageSize, 30),
			3: makePage("p3", 6, 30),
		},
		summary: &cart.Summary{Lines: []cart.Line{{Quantity: 2}, {Quantity: 3}}},
	}
}

type testEnv struct {
	shop     *fakeShop
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	ctrl     *Controller
}

func newTestEnv(shop *fakeShop, opts ...Option) *testEnv {
	env := &testEnv{
		shop:     shop,
		clock:    clockwork.NewFakeClock(),
		notifier: &recordingNotifier{},
	}
	opts = append([]Option{
		WithClock(env.clock),
		WithNotifier(env.notifier),
	}, opts...)
	env.ctrl = New(shop, shop, opts...)
	return env
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()
	require.NoError(t, e.ctrl.Start(context.Background()))
	e.ctrl.Wait()
}

// --- Tests ---

func TestNew_InitialState(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()

	s := env.ctrl.Snapshot()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 1, s.TotalPages)
	assert.Zero(t, s.CartItemCount)
	assert.Empty(t, s.Products)
	assert.False(t, s.Alert.Visible)
}

func TestStart_LoadsFirstPageAndCart(t *testing.T) {
	defer goleak.VerifyNone(t)

	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)

	s := env.ctrl.Snapshot()
	assert.Len(t, s.Products, product.PageSize)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 3, s.TotalPages)
	assert.Equal(t, 5, s.CartItemCount)
	assert.False(t, s.LoadingProducts)
	assert.False(t, s.LoadingCart)

	list, summary, _ := env.shop.calls()
	assert.Equal(t, []int{1}, list)
	assert.Equal(t, 1, summary)
	assert.Equal(t, []int{product.PageSize}, env.shop.pageSizes)
}

func TestChangePage_TriggersOneFetchOfEach(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)
	env.shop.resetCalls()

	require.NoError(t, env.ctrl.ChangePage(context.Background(), 3))
	env.ctrl.Wait()

	list, summary, _ := env.shop.calls()
	assert.Equal(t, []int{3}, list)
	assert.Equal(t, 1, summary)

	s := env.ctrl.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	require.Len(t, s.Products, 6)
	assert.Equal(t, "p3-0", s.Products[0].ID.String())
}

func TestChangePage_SamePageIsNoop(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)
	env.shop.resetCalls()

	require.NoError(t, env.ctrl.ChangePage(context.Background(), 1))
	env.ctrl.Wait()

	list, summary, _ := env.shop.calls()
	assert.Empty(t, list)
	assert.Zero(t, summary)
}

func TestChangePage_OutOfRange(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)

	for _, p := range []int{0, -1, 4} {
		err := env.ctrl.ChangePage(context.Background(), p)
		require.ErrorIs(t, err, ErrPageOutOfRange, "page %d", p)
	}
	assert.Equal(t, 1, env.ctrl.Snapshot().CurrentPage)
}

func TestStart_ZeroProducts(t *testing.T) {
	shop := newShop()
	shop.pages = map[int]*product.Page{1: {Count: 0}}
	env := newTestEnv(shop)
	defer env.ctrl.Close()
	env.start(t)

	s := env.ctrl.Snapshot()
	assert.Equal(t, 1, s.TotalPages)
	assert.Empty(t, s.Products)
}

func TestTotalPagesFollowLatestCount(t *testing.T) {
	shop := newShop()
	env := newTestEnv(shop)
	defer env.ctrl.Close()
	env.start(t)
	require.Equal(t, 3, env.ctrl.Snapshot().TotalPages)

	shop.set(func(f *fakeShop) { f.pages[2] = makePage("p2", product.PageSize, 13) })
	require.NoError(t, env.ctrl.ChangePage(context.Background(), 2))
	env.ctrl.Wait()

	assert.Equal(t, 2, env.ctrl.Snapshot().TotalPages)
}

func TestShrinkingCatalog_ClampsCurrentPage(t *testing.T) {
	shop := newShop()
	env := newTestEnv(shop)
	defer env.ctrl.Close()
	env.start(t)

	require.NoError(t, env.ctrl.ChangePage(context.Background(), 3))
	env.ctrl.Wait()
	env.shop.resetCalls()

	shop.set(func(f *fakeShop) {
		f.pages[2] = makePage("p2", 8, 20)
		f.pages[3] = makePage("p3", 0, 20)
	})
	require.NoError(t, env.ctrl.Refresh(context.Background()))
	env.ctrl.Wait()

	s := env.ctrl.Snapshot()
	assert.Equal(t, 2, s.TotalPages)
	assert.Equal(t, 2, s.CurrentPage)
	require.Len(t, s.Products, 8)
	assert.Equal(t, "p2-0", s.Products[0].ID.String())
	assert.False(t, s.LoadingProducts)

	list, _, _ := env.shop.calls()
	assert.Equal(t, []int{3, 2}, list)
}

func TestFetchFailures_AreIndependent(t *testing.T) {
	t.Run("ProductsFail", func(t *testing.T) {
		shop := newShop()
		shop.listErr = errors.New("catalog down")
		env := newTestEnv(shop)
		defer env.ctrl.Close()
		env.start(t)

		s := env.ctrl.Snapshot()
		assert.Empty(t, s.Products)
		assert.Equal(t, 1, s.TotalPages)
		assert.Equal(t, 5, s.CartItemCount)
		assert.False(t, s.LoadingProducts)
		assert.Zero(t, env.notifier.count(), "read failures are not surfaced")
	})
	t.Run("CartFails", func(t *testing.T) {
		shop := newShop()
		shop.summaryErr = errors.New("cart down")
		env := newTestEnv(shop)
		defer env.ctrl.Close()
		env.start(t)

		s := env.ctrl.Snapshot()
		assert.Len(t, s.Products, product.PageSize)
		assert.Zero(t, s.CartItemCount)
		assert.False(t, s.LoadingCart)
		assert.Zero(t, env.notifier.count())
	})
}

func TestFetchFailure_KeepsStaleProducts(t *testing.T) {
	shop := newShop()
	env := newTestEnv(shop)
	defer env.ctrl.Close()
	env.start(t)

	shop.set(func(f *fakeShop) { f.listErr = errors.New("timeout") })
	require.NoError(t, env.ctrl.ChangePage(context.Background(), 2))
	env.ctrl.Wait()

	s := env.ctrl.Snapshot()
	assert.Equal(t, 2, s.CurrentPage)
	require.NotEmpty(t, s.Products)
	assert.Equal(t, "p1-0", s.Products[0].ID.String())
}

func TestFetchFailure_Logged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	shop := newShop()
	shop.listErr = errors.New("catalog down")
	env := newTestEnv(shop, WithLogger(zap.New(core)))
	defer env.ctrl.Close()
	env.start(t)

	entries := logs.FilterMessage("Fetch products failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestStaleProductResponseDropped(t *testing.T) {
	shop := newShop()
	env := newTestEnv(shop)
	defer env.ctrl.Close()
	env.start(t)

	gate2 := make(chan struct{})
	shop.set(func(f *fakeShop) { f.gates = map[int]chan struct{}{2: gate2} })

	require.NoError(t, env.ctrl.ChangePage(context.Background(), 2))
	require.NoError(t, env.ctrl.ChangePage(context.Background(), 3))

	// Page 3 answers first, then the slow page 2 response arrives.
	require.Eventually(t, func() bool {
		s := env.ctrl.Snapshot()
		return len(s.Products) == 6 && !s.LoadingProducts
	}, time.Second, 5*time.Millisecond)
	close(gate2)
	env.ctrl.Wait()

	s := env.ctrl.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	require.Len(t, s.Products, 6)
	assert.Equal(t, "p3-0", s.Products[0].ID.String())
}

func TestAddToCart_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	env := newTestEnv(newShop(), WithAlertMessage("Added!"))
	defer env.ctrl.Close()
	env.start(t)

	require.NoError(t, env.ctrl.AddToCart(context.Background(), product.NumericID("7")))
	env.ctrl.Wait()

	_, summary, adds := env.shop.calls()
	assert.Equal(t, []product.ID{product.NumericID("7")}, adds)
	assert.Equal(t, 1, summary, "cart is not re-fetched after adding")

	s := env.ctrl.Snapshot()
	assert.Equal(t, 6, s.CartItemCount)
	assert.True(t, s.Alert.Visible)
	assert.Equal(t, "Added!", s.Alert.Message)

	env.clock.Advance(AlertDuration - time.Millisecond)
	assert.True(t, env.ctrl.Snapshot().Alert.Visible)

	env.clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool {
		return !env.ctrl.Snapshot().Alert.Visible
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 6, env.ctrl.Snapshot().CartItemCount)
}

func TestAddToCart_Failure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	shop := newShop()
	shop.addErr = &payloadError{body: []byte(`{"detail":"out of stock"}`)}
	env := newTestEnv(shop, WithLogger(zap.New(core)))
	defer env.ctrl.Close()
	env.start(t)

	require.NoError(t, env.ctrl.AddToCart(context.Background(), product.NumericID("7")))
	env.ctrl.Wait()

	s := env.ctrl.Snapshot()
	assert.Equal(t, 5, s.CartItemCount)
	assert.False(t, s.Alert.Visible)
	assert.Equal(t, 1, env.notifier.count())

	env.clock.Advance(AlertDuration)
	assert.False(t, env.ctrl.Snapshot().Alert.Visible)

	entries := logs.FilterMessage("Add to cart failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, `{"detail":"out of stock"}`, entries[0].ContextMap()["payload"])
}

func TestAddToCart_RapidClicksAreIndependent(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)

	for range 5 {
		require.NoError(t, env.ctrl.AddToCart(context.Background(), product.NumericID("1")))
	}
	env.ctrl.Wait()

	_, _, adds := env.shop.calls()
	assert.Len(t, adds, 5)
	assert.Equal(t, 10, env.ctrl.Snapshot().CartItemCount)
}

func TestAlert_NewerAlertSupersedesTimer(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)

	require.NoError(t, env.ctrl.AddToCart(context.Background(), product.NumericID("1")))
	env.ctrl.Wait()
	first := env.ctrl.Snapshot().Alert

	env.clock.Advance(2 * time.Second)
	require.NoError(t, env.ctrl.AddToCart(context.Background(), product.NumericID("2")))
	env.ctrl.Wait()
	second := env.ctrl.Snapshot().Alert
	assert.NotEqual(t, first.ID, second.ID)

	// The first alert would have expired here.
	env.clock.Advance(1500 * time.Millisecond)
	assert.True(t, env.ctrl.Snapshot().Alert.Visible)

	env.clock.Advance(1500 * time.Millisecond)
	require.Eventually(t, func() bool {
		return !env.ctrl.Snapshot().Alert.Visible
	}, time.Second, 5*time.Millisecond)
}

func TestUpdatesSignalled(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()

	require.NoError(t, env.ctrl.Start(context.Background()))

	select {
	case <-env.ctrl.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update signalled")
	}
	env.ctrl.Wait()
}

func TestSnapshotIsACopy(t *testing.T) {
	env := newTestEnv(newShop())
	defer env.ctrl.Close()
	env.start(t)

	s := env.ctrl.Snapshot()
	s.Products[0].Name = "mutated"
	assert.NotEqual(t, "mutated", env.ctrl.Snapshot().Products[0].Name)
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	shop := newShop()
	gate := make(chan struct{})
	shop.gates = map[int]chan struct{}{1: gate}
	env := newTestEnv(shop)

	require.NoError(t, env.ctrl.Start(context.Background()))
	close(gate)
	require.NoError(t, env.ctrl.Close())
	require.NoError(t, env.ctrl.Close())

	ctx := context.Background()
	assert.ErrorIs(t, env.ctrl.Start(ctx), ErrClosed)
	assert.ErrorIs(t, env.ctrl.Refresh(ctx), ErrClosed)
	assert.ErrorIs(t, env.ctrl.ChangePage(ctx, 1), ErrClosed)
	assert.ErrorIs(t, env.ctrl.AddToCart(ctx, product.NumericID("1")), ErrClosed)
}
