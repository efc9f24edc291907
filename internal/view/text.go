package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText writes a plain-text rendition of the page, suitable for
// non-interactive output.
func WriteText(w io.Writer, p Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Cart: %d item(s)\t%s\n", p.NavBar.Cart.Count, p.NavBar.Cart.Route)
	if p.Alert != nil {
		fmt.Fprintf(tw, "! %s\n", p.Alert.Message)
	}
	fmt.Fprintln(tw)

	if len(p.Grid) == 0 {
		fmt.Fprintln(tw, "No products.")
	} else {
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tIMAGE")
		for _, c := range p.Grid {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ProductID, c.Name, c.Price, c.ImageURL)
		}
	}

	if p.Pagination != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Pages: %s\n", pageStrip(p.Pagination))
	}
	return tw.Flush()
}

// pageStrip renders "1 [2] 3" with the active page in brackets.
func pageStrip(p *Pagination) string {
	parts := make([]string, len(p.Items))
	for i, it := range p.Items {
		if it.Active {
			parts[i] = fmt.Sprintf("[%d]", it.Number)
		} else {
			parts[i] = fmt.Sprint(it.Number)
		}
	}
	return strings.Join(parts, " ")
}
