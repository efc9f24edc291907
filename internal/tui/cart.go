package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// cartLoadedMsg carries the result of a cart summary fetch.
type cartLoadedMsg struct {
	summary *cart.Summary
	err     error
}

func loadCart(ctx context.Context, carts cart.Repository) tea.Cmd {
	return func() tea.Msg {
		s, err := carts.Summary(ctx)
		return cartLoadedMsg{summary: s, err: err}
	}
}

// cartScreen shows the lines of the cart summary.
type cartScreen struct {
	table   table.Model
	loading bool
	err     error
	items   int
}

func newCartScreen() cartScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Product", Width: 24},
			{Title: "Quantity", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return cartScreen{table: t, loading: true}
}

func (c cartScreen) apply(msg cartLoadedMsg) cartScreen {
	c.loading = false
	c.err = msg.err
	if msg.err != nil {
		return c
	}
	rows := make([]table.Row, 0, len(msg.summary.Lines))
	for _, l := range msg.summary.Lines {
		id := l.ProductID.String()
		if id == "" {
			id = "-"
		}
		rows = append(rows, table.Row{id, strconv.Itoa(l.Quantity)})
	}
	c.table.SetRows(rows)
	c.items = msg.summary.ItemCount()
	return c
}

func (c cartScreen) update(msg tea.Msg) (cartScreen, tea.Cmd) {
	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	return c, cmd
}

func (c cartScreen) view(s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Cart summary"))
	b.WriteString("\n")
	switch {
	case c.loading:
		b.WriteString(s.Muted.Render("Loading..."))
	case c.err != nil:
		b.WriteString(s.DialogTitle.Render("Could not load the cart: "))
		b.WriteString(c.err.Error())
	default:
		b.WriteString(c.table.View())
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Items in cart: %d", c.items))
	}
	return b.String()
}
