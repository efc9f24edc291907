// Package tui is the terminal front end of the storefront.
//
// Model is a bubbletea model that owns the event loop: it draws the page
// tree built by the view package, maps keys onto listing.Controller
// operations and re-reads the controller state whenever it signals a change.
// Blocking errors reported through Notifier open a modal dialog.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/listing"
	"github.com/xenking/kart-storefront/internal/view"
)

const (
	cardWidth   = 26
	defaultCols = 3
)

type screen int

const (
	screenListing screen = iota
	screenCart
)

// Messages delivered to Update.
type (
	stateChangedMsg struct{}
	errorNoticeMsg  struct{ err error }
)

// Options configure a Model.
type Options struct {
	// CurrencySuffix is appended to prices.
	CurrencySuffix string
	// Navigator receives routes the storefront does not handle itself.
	Navigator Navigator
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Model is the storefront tea.Model.
type Model struct {
	ctx      context.Context
	ctrl     *listing.Controller
	carts    cart.Repository
	notifier *Notifier
	nav      Navigator
	lg       *zap.Logger
	suffix   string

	keys   keyMap
	help   help.Model
	search textinput.Model
	styles Styles

	state  listing.State
	cursor int
	screen screen
	cart   cartScreen
	modal  error
	status string
	width  int
	height int
}

var _ tea.Model = Model{}

// New creates a Model driving ctrl. carts backs the cart summary screen and
// notifier must be the one the controller reports blocking errors to.
func New(ctx context.Context, ctrl *listing.Controller, carts cart.Repository, notifier *Notifier, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewNotifier()
	}

	search := textinput.New()
	search.Placeholder = "Search products"
	search.Prompt = "⌕ "
	search.CharLimit = 64
	search.Width = 30

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		carts:    carts,
		notifier: notifier,
		nav:      opts.Navigator,
		lg:       opts.Logger,
		suffix:   opts.CurrencySuffix,
		keys:     defaultKeyMap(),
		help:     help.New(),
		search:   search,
		styles:   DefaultStyles(),
		state:    ctrl.Snapshot(),
	}
}

// Init starts the controller and subscribes to its updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startCmd(),
		waitForUpdate(m.ctrl.Updates()),
		waitForError(m.notifier.ch),
	)
}

func (m Model) startCmd() tea.Cmd {
	ctx, ctrl, lg := m.ctx, m.ctrl, m.lg
	return func() tea.Msg {
		if err := ctrl.Start(ctx); err != nil {
			lg.Warn("Start listing", zap.Error(err))
		}
		return nil
	}
}

func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func waitForError(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return errorNoticeMsg{err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateChangedMsg:
		m.state = m.ctrl.Snapshot()
		m.clampCursor()
		return m, waitForUpdate(m.ctrl.Updates())

	case errorNoticeMsg:
		m.modal = msg.err
		return m, waitForError(m.notifier.ch)

	case cartLoadedMsg:
		if m.screen == screenCart {
			m.cart = m.cart.apply(msg)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.search.Focused() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The error dialog blocks every other interaction until dismissed.
	if m.modal != nil {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case key.Matches(msg, m.keys.Dismiss):
			m.modal = nil
		}
		return m, nil
	}

	if m.search.Focused() {
		return m.handleSearchKey(msg)
	}

	if m.screen == screenCart {
		return m.handleCartKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.PrevPage):
		m.changePage(m.state.CurrentPage - 1)
	case key.Matches(msg, m.keys.NextPage):
		m.changePage(m.state.CurrentPage + 1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-m.columns())
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.columns())
	case key.Matches(msg, m.keys.Add):
		m.addSelected()
	case key.Matches(msg, m.keys.Cart):
		return m.navigate(view.CartRoute)
	case key.Matches(msg, m.keys.Search):
		m.status = ""
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		if err := m.ctrl.Refresh(m.ctx); err != nil {
			m.lg.Warn("Refresh", zap.Error(err))
		}
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9':
		m.changePage(int(msg.Runes[0] - '0'))
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.search.Value())
		m.search.Blur()
		if query == "" {
			return m, nil
		}
		return m.navigate(SearchRoute(query))
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC, msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.screen = screenListing
		if err := m.ctrl.Refresh(m.ctx); err != nil {
			m.lg.Warn("Refresh", zap.Error(err))
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.cart.loading = true
		return m, loadCart(m.ctx, m.carts)
	}
	var cmd tea.Cmd
	m.cart, cmd = m.cart.update(msg)
	return m, cmd
}

// navigate handles the cart route itself and hands everything else to the
// navigator.
func (m Model) navigate(route string) (tea.Model, tea.Cmd) {
	if isCartRoute(route) {
		m.screen = screenCart
		m.cart = newCartScreen()
		return m, loadCart(m.ctx, m.carts)
	}
	m.lg.Info("Navigate", zap.String("route", route))
	if m.nav != nil {
		m.nav.Navigate(route)
	}
	m.status = "→ " + route
	return m, nil
}

func (m *Model) changePage(p int) {
	if p < 1 || p > m.state.TotalPages || p == m.state.CurrentPage {
		return
	}
	if err := m.ctrl.ChangePage(m.ctx, p); err != nil {
		m.lg.Warn("Change page", zap.Int("page", p), zap.Error(err))
		return
	}
	m.cursor = 0
}

func (m *Model) addSelected() {
	if m.cursor < 0 || m.cursor >= len(m.state.Products) {
		return
	}
	id := m.state.Products[m.cursor].ID
	if err := m.ctrl.AddToCart(m.ctx, id); err != nil {
		m.lg.Warn("Add to cart", zap.Stringer("product_id", id), zap.Error(err))
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.state.Products)
	switch {
	case n == 0 || m.cursor < 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	}
}

func (m Model) columns() int {
	if m.width <= 0 {
		return defaultCols
	}
	cols := m.width / (cardWidth + 4)
	if cols < 1 {
		return 1
	}
	return cols
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	if m.screen == screenCart {
		body = m.cart.view(m.styles) + "\n" + m.styles.Muted.Render("esc back • r reload • q quit")
	} else {
		body = m.listingView()
	}

	if m.modal == nil {
		return body
	}
	dialog := m.styles.Dialog.Render(
		m.styles.DialogTitle.Render("Something went wrong") + "\n\n" +
			m.modal.Error() + "\n\n" +
			m.styles.Muted.Render("press enter to dismiss"),
	)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
	}
	return dialog
}

func (m Model) listingView() string {
	page := view.Render(m.state, view.Options{
		CurrencySuffix: m.suffix,
		SearchQuery:    m.search.Value(),
	})

	var b strings.Builder
	b.WriteString(m.navBarView(page.NavBar))
	b.WriteString("\n")

	if page.Alert != nil {
		b.WriteString(m.styles.Alert.Render("✔ " + page.Alert.Message))
		b.WriteString("\n")
	}

	switch {
	case len(page.Grid) > 0:
		b.WriteString(m.gridView(page.Grid))
	case m.state.LoadingProducts:
		b.WriteString(m.styles.Muted.Render("Loading products..."))
	default:
		b.WriteString(m.styles.Muted.Render("No products"))
	}
	b.WriteString("\n")

	if page.Pagination != nil {
		b.WriteString(m.paginationView(page.Pagination))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) navBarView(nav view.NavBar) string {
	badge := m.styles.CartBadge.Render(fmt.Sprintf("🛒 %d", nav.Cart.Count))
	return m.styles.NavBar.Render(
		lipgloss.JoinHorizontal(lipgloss.Center, m.styles.Search.Render(m.search.View()), badge),
	)
}

func (m Model) gridView(cards []view.Card) string {
	cols := m.columns()
	var rows []string
	for start := 0; start < len(cards); start += cols {
		end := min(start+cols, len(cards))
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cells = append(cells, m.cardView(cards[i], i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) cardView(c view.Card, selected bool) string {
	style := m.styles.Card
	action := m.styles.CardAction.Render("[ " + c.Action + " ]")
	if selected {
		style = m.styles.CardSelected
		action = m.styles.CardPrice.Render("[ " + c.Action + " ]")
	}
	image := c.ImageURL
	if image == "" {
		image = "no image"
	}
	return style.Render(strings.Join([]string{
		m.styles.CardImage.Render(truncate(image, cardWidth-2)),
		m.styles.CardTitle.Render(truncate(c.Name, cardWidth-2)),
		m.styles.CardPrice.Render(c.Price),
		action,
	}, "\n"))
}

func (m Model) paginationView(p *view.Pagination) string {
	items := make([]string, 0, len(p.Items)+2)
	items = append(items, m.styles.PageItem.Render("‹"))
	for _, it := range p.Items {
		style := m.styles.PageItem
		if it.Active {
			style = m.styles.PageActive
		}
		items = append(items, style.Render(fmt.Sprint(it.Number)))
	}
	items = append(items, m.styles.PageItem.Render("›"))
	return lipgloss.JoinHorizontal(lipgloss.Center, items...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
