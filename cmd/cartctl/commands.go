package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type scopeFunc func() (string, error)

func productsCmd(deps func() *app) *cobra.Command {
	var (
		query   string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := deps().catalog.List(cmd.Context(), catalog.Query{Search: query, Page: page, PerPage: perPage})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTARS")
			for _, p := range result.Items {
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\n", p.ID, p.Title, p.Price, p.Stars())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d of %d (%d products)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive title search")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "products per page (0 uses the configured size)")
	return cmd
}

func listCmd(deps func() *app, scope scopeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := scope()
			if err != nil {
				return err
			}
			view, err := deps().carts.Items(cmd.Context(), sid)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
}

func addCmd(deps func() *app, scope scopeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := scope()
			if err != nil {
				return err
			}
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			view, err := deps().carts.AddToCart(cmd.Context(), sid, id)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
}

func removeCmd(deps func() *app, scope scopeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := scope()
			if err != nil {
				return err
			}
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			view, err := deps().carts.RemoveFromCart(cmd.Context(), sid, id)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
}

func clearCmd(deps func() *app, scope scopeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := scope()
			if err != nil {
				return err
			}
			view, err := deps().carts.ClearCart(cmd.Context(), sid)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
}

func totalCmd(deps func() *app, scope scopeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the cart total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := scope()
			if err != nil {
				return err
			}
			total, err := deps().carts.CartTotal(cmd.Context(), sid)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total.StringFixed(2))
			return nil
		},
	}
}

func sessionCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Mint a new session id and its signed token",
		Long: `Mint a new session id together with a token the API accepts in the
X-SF-Session header, so the CLI and an HTTP client can share one cart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sid := auth.NewSessionID()
			token, err := auth.MintSessionToken(deps().cfg.Session, time.Now(), sid)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session: %s\n", sid)
			fmt.Fprintf(out, "token:   %s\n", token)
			return nil
		},
	}
}

func parseProductID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product id %q", raw))
	}
	return id, nil
}

func printView(out io.Writer, view cart.View) error {
	if len(view.Items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range view.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\n", item.ID, item.Title, item.Quantity, item.Price, item.Subtotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "items: %d  total: %s\n", view.Quantity, view.Total.StringFixed(2))
	return nil
}
