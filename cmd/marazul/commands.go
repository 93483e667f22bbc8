package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/marazul/internal/apiclient"
	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/service/preferences"
)

func (c *cli) price(minor int64) string {
	return contract.FormatPrice(minor, c.cfg.Currency)
}

func parseQty(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a number", errArgs, raw)
	}
	return int32(n), nil
}

func (c *cli) productsCmd() *cobra.Command {
	var filter apiclient.ProductFilter

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.sf.API.Products(cmd.Context(), filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range products {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s/%s\tstock %d\n", p.ID, p.Name, c.price(p.Price), p.Unit, p.Stock)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "category id")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "text search")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "max products to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := c.sf.API.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, cat := range categories {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", cat.ID, cat.Name)
			}
			return nil
		},
	})
	return cmd
}

func (c *cli) printCart(out io.Writer, cart domain.Cart) error {
	if cart.IsEmpty() {
		_, _ = fmt.Fprintln(out, "cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range cart.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\tx%d\t%s\n", item.ProductID, item.Name, item.Quantity, c.price(item.LineTotal()))
	}
	_, _ = fmt.Fprintf(w, "items: %d\tsubtotal: %s\n", cart.ItemCount(), c.price(cart.Subtotal()))
	return w.Flush()
}

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printCart(cmd.OutOrStdout(), c.sf.Cart.Cart())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id> [qty]",
			Short: "Add a product (qty defaults to 1)",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty := int32(1)
				if len(args) == 2 {
					n, err := parseQty(args[1])
					if err != nil {
						return err
					}
					qty = n
				}
				product, err := c.sf.API.Product(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cart, err := c.sf.Cart.AddItem(cmd.Context(), product, qty)
				if err != nil {
					return err
				}
				return c.printCart(cmd.OutOrStdout(), cart)
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cart, err := c.sf.Cart.RemoveItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printCart(cmd.OutOrStdout(), cart)
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <qty>",
			Short: "Set a line quantity (0 removes it)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := parseQty(args[1])
				if err != nil {
					return err
				}
				cart, err := c.sf.Cart.UpdateQuantity(cmd.Context(), args[0], qty)
				if err != nil {
					return err
				}
				return c.printCart(cmd.OutOrStdout(), cart)
			},
		},
		&cobra.Command{
			Use:   "inc <product-id>",
			Short: "Increase a line by one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cart, err := c.sf.Cart.IncreaseQuantity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printCart(cmd.OutOrStdout(), cart)
			},
		},
		&cobra.Command{
			Use:   "dec <product-id>",
			Short: "Decrease a line by one (removes it at zero)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cart, err := c.sf.Cart.DecreaseQuantity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printCart(cmd.OutOrStdout(), cart)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.printCart(cmd.OutOrStdout(), c.sf.Cart.Clear(cmd.Context()))
			},
		},
		c.serverCartCmd(),
	)
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and merge the guest cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.sf.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "hola, %s\n", user.FullName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg contract.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.sf.Auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bienvenido, %s\n", user.FullName())
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.sf.Auth.Logout(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.sf.Auth.CurrentUser(cmd.Context())
			if errors.Is(err, domain.ErrNotAuthenticated) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "guest")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName(), user.Email)
			return nil
		},
	}
}

func (c *cli) checkoutCmd() *cobra.Command {
	var addressID, notes string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order with the cart contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := c.sf.Checkout.PlaceOrder(cmd.Context(), addressID, notes)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "order %s %s: %s\n", order.ID, order.Status, contract.FormatPrice(order.Amount, order.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&addressID, "address", "", "delivery address id")
	cmd.Flags().StringVar(&notes, "notes", "", "order notes")
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List past orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := c.sf.Checkout.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no orders yet")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, o := range orders {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.Status, contract.FormatPrice(o.Amount, o.Currency))
			}
			return w.Flush()
		},
	}
}

func (c *cli) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change theme and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\nlanguage: %s\n", c.sf.Preferences.Theme(ctx), c.sf.Preferences.Language(ctx))
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "theme <light|dark>",
			Short:     "Set the theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: preferences.Themes,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.sf.Preferences.SetTheme(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:       "language <es|en>",
			Short:     "Set the language",
			Args:      cobra.ExactArgs(1),
			ValidArgs: preferences.Languages,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.sf.Preferences.SetLanguage(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}
