package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"monocart/internal/session"
	"monocart/internal/store"
)

func newLoginCmd(a *app) *cobra.Command {
	var creds session.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Login(cmd.Context(), creds); err != nil {
				// the session already rendered the failure for display
				if msg := a.session.Error(session.OpLogin); msg != "" {
					return errors.New(msg)
				}
				return err
			}

			user := a.session.User()
			fmt.Fprintf(a.out, "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			fmt.Fprintf(a.out, "Landing page: %s\n", a.session.LandingRoute())
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.IsLoggedIn() {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}

			user := a.session.User()
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", user.ID)
			fmt.Fprintf(w, "Name\t%s\n", user.Name)
			fmt.Fprintf(w, "Email\t%s\n", user.Email)
			fmt.Fprintf(w, "Phone\t%s\n", user.Phone)
			fmt.Fprintf(w, "Role\t%s\n", user.Role)
			return w.Flush()
		},
	}
}

func newProductsCmd(a *app) *cobra.Command {
	var (
		filter store.ProductFilter
		search string
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Products.FetchAll(cmd.Context(), filter); err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tBRAND\tPRICE\tSTOCK")
			for _, p := range a.store.Products.Search(search) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Title, p.Brand, p.Price, p.Stock)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&filter.CategoryID, "category", 0, "category id")
	cmd.Flags().Int64Var(&filter.SubcategoryID, "subcategory", 0, "subcategory id")
	cmd.Flags().StringVar(&search, "search", "", "match title, brand or slug")
	return cmd
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.store.Products.FetchByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", p.ID)
			fmt.Fprintf(w, "Title\t%s\n", p.Title)
			fmt.Fprintf(w, "Slug\t%s\n", p.Slug)
			fmt.Fprintf(w, "Brand\t%s\n", p.Brand)
			fmt.Fprintf(w, "Price\t%.2f\n", p.Price)
			fmt.Fprintf(w, "Stock\t%d\n", p.Stock)
			fmt.Fprintf(w, "Images\t%s\n", strings.Join(p.Images, ", "))
			if p.Description != "" {
				fmt.Fprintf(w, "Description\t%s\n", p.Description)
			}
			return w.Flush()
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Categories.FetchAll(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSLUG")
			for _, c := range a.store.Categories.Items() {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Slug)
			}
			return w.Flush()
		},
	}
}

func newSubcategoriesCmd(a *app) *cobra.Command {
	var categoryID int64

	cmd := &cobra.Command{
		Use:   "subcategories",
		Short: "List subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Subcategories.FetchAll(cmd.Context(), categoryID); err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
			for _, s := range a.store.Subcategories.Items() {
				parent := fmt.Sprint(s.CategoryID)
				if s.Category != nil && s.Category.Name != "" {
					parent = s.Category.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, parent)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "only subcategories of this category")
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.store.Orders.FetchByUser(cmd.Context(), a.session.User().ID, a.session.Token()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTOTAL\tITEMS\tPLACED")
			for _, o := range a.store.Orders.Items() {
				placed := "-"
				if !o.CreatedAt.IsZero() {
					placed = o.CreatedAt.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\n", o.ID, o.Status, o.TotalAmount, len(o.Items), placed)
			}
			return w.Flush()
		},
	}
}

func newCancelOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-order <id>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			orders := a.store.Orders
			if err := orders.FetchByUser(cmd.Context(), a.session.User().ID, a.session.Token()); err != nil {
				return err
			}
			if err := orders.Cancel(cmd.Context(), args[0], a.session.Token()); err != nil {
				if msg := orders.Error(store.OpCancel); msg != "" {
					return errors.New(msg)
				}
				return err
			}

			fmt.Fprintf(a.out, "Order %s cancelled\n", args[0])
			return nil
		},
	}
}
