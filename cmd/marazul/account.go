package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile as the server sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.sf.API.Me(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\nname: %s\nemail: %s\n", user.ID, user.FullName(), user.Email)
			return nil
		},
	}

	var patch domain.User
	update := &cobra.Command{
		Use:   "update",
		Short: "Change name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if patch.FirstName == "" && patch.LastName == "" && patch.Email == "" {
				return fmt.Errorf("%w: nothing to update", errArgs)
			}
			user, err := c.sf.Auth.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName(), user.Email)
			return nil
		},
	}
	update.Flags().StringVar(&patch.FirstName, "first-name", "", "first name")
	update.Flags().StringVar(&patch.LastName, "last-name", "", "last name")
	update.Flags().StringVar(&patch.Email, "email", "", "account email")

	cmd.AddCommand(update)
	return cmd
}

func (c *cli) addressesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List saved delivery addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addresses, err := c.sf.API.Addresses(cmd.Context())
			if err != nil {
				return err
			}
			if len(addresses) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no addresses")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, a := range addresses {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s, %s\n", a.ID, a.Label, a.Street, a.City)
			}
			return w.Flush()
		},
	}

	var addr domain.Address
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a delivery address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := c.sf.API.CreateAddress(cmd.Context(), addr)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "address %s saved\n", created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&addr.Label, "label", "", "short name, e.g. casa")
	add.Flags().StringVar(&addr.Street, "street", "", "street and number")
	add.Flags().StringVar(&addr.City, "city", "", "city")
	add.Flags().StringVar(&addr.Region, "region", "", "region")
	add.Flags().StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	add.Flags().StringVar(&addr.Country, "country", "CL", "country code")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "rm <address-id>",
			Short: "Delete a saved address",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.sf.API.DeleteAddress(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "address %s deleted\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews <product-id>",
		Short: "Show product reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := c.sf.API.Reviews(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(reviews) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reviews yet")
				return nil
			}
			for _, r := range reviews {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", strings.Repeat("*", r.Rating), r.Comment)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id> <rating> [comment...]",
		Short: "Rate a product from 1 to 5",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: rating %q is not a number", errArgs, args[1])
			}
			review := domain.Review{
				ProductID: args[0],
				Rating:    rating,
				Comment:   strings.Join(args[2:], " "),
			}
			if errs := review.Validate(); len(errs) > 0 {
				return fmt.Errorf("%w: %w", errArgs, errs[0])
			}
			created, err := c.sf.API.CreateReview(cmd.Context(), review)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "review %s saved\n", created.ID)
			return nil
		},
	})
	return cmd
}

func (c *cli) contactCmd() *cobra.Command {
	var msg domain.ContactMessage
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if msg.Email == "" {
				// Для вошедшего пользователя email берётся из сессии.
				if user, err := c.sf.Auth.CurrentUser(cmd.Context()); err == nil {
					msg.Email = user.Email
					if msg.Name == "" {
						msg.Name = user.FullName()
					}
				}
			}
			if err := c.sf.API.SendContact(cmd.Context(), msg); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "message sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Name, "name", "", "your name")
	cmd.Flags().StringVar(&msg.Email, "email", "", "reply email")
	cmd.Flags().StringVar(&msg.Subject, "subject", "", "subject")
	cmd.Flags().StringVarP(&msg.Message, "message", "m", "", "message text")
	return cmd
}

// serverCartCmd работает с корзиной на сервере. После каждой правки
// локальная корзина заменяется серверной, как при входе.
func (c *cli) serverCartCmd() *cobra.Command {
	pull := func(cmd *cobra.Command, cart domain.Cart) error {
		return c.printCart(cmd.OutOrStdout(), c.sf.Cart.Replace(cmd.Context(), cart.Items))
	}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Show the server-side cart and pull it into the local one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := c.sf.API.Cart(cmd.Context())
			if err != nil {
				return err
			}
			return pull(cmd, cart)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <product-id> <qty>",
			Short: "Set a server line quantity (0 removes it)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := parseQty(args[1])
				if err != nil {
					return err
				}
				cart, err := c.sf.API.UpdateCartItem(cmd.Context(), args[0], qty)
				if err != nil {
					return err
				}
				return pull(cmd, cart)
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a server line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cart, err := c.sf.API.RemoveFromCart(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return pull(cmd, cart)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the server cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.sf.API.ClearCart(cmd.Context()); err != nil {
					return err
				}
				return pull(cmd, domain.Cart{})
			},
		},
	)
	return cmd
}
