package main

import (
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/app"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/view"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// setup loads the configuration and builds the logger for a command.
func (o *rootOptions) setup(cmd *cobra.Command, interactive bool) (*app.Config, *zap.Logger, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	lg, err := app.NewLogger(cfg.Log, interactive, o.verbose)
	if err != nil {
		return nil, nil, err
	}
	cmd.SetContext(zctx.Base(cmd.Context(), lg))
	return cfg, lg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Browse the kart shop catalog from the terminal",
		Long: `storefront lists the kart shop catalog page by page, shows the number of
items in the cart and adds products to it.

Without a subcommand it starts the interactive browser.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()
			return app.Run(cmd.Context(), lg, cfg)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newListCmd(opts),
		newCartCmd(opts),
		newAddCmd(opts),
	)
	return root
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			client, err := app.NewClient(cfg.API)
			if err != nil {
				return err
			}
			state, err := app.LoadState(cmd.Context(), client, client, page)
			if err != nil {
				return errors.Wrap(err, "load page")
			}
			return view.WriteText(cmd.OutOrStdout(), view.Render(state, view.Options{
				CurrencySuffix: cfg.UI.CurrencySuffix,
			}))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	return cmd
}

func newCartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Print the cart summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			client, err := app.NewClient(cfg.API)
			if err != nil {
				return err
			}
			summary, err := client.Summary(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, l := range summary.Lines {
				if _, err := fmt.Fprintf(out, "%s\t%d\n", l.ProductID, l.Quantity); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "Items in cart: %d\n", summary.ItemCount())
			return err
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return errors.Errorf("quantity %d: must be positive", quantity)
			}
			cfg, lg, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			id := product.ParseID(args[0])
			if id.IsZero() {
				return errors.New("product id must not be empty")
			}
			client, err := app.NewClient(cfg.API)
			if err != nil {
				return err
			}
			if err := client.Add(cmd.Context(), id, quantity); err != nil {
				return err
			}
			lg.Debug("Added to cart", zap.Stringer("product_id", id), zap.Int("quantity", quantity))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cfg.UI.AlertMessage+": "+id.String()+" x"+strconv.Itoa(quantity))
			return err
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "number of units to add")
	return cmd
}
