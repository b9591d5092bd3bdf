package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/storefront"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
	// standalone commands build their own app
	standalone func(ctx context.Context, c config.Config, args []string, out io.Writer) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":    {usage: "login -u <username> -p <password>", run: loginCmd},
		"signup":   {usage: "signup -u <username> -e <email> -p <password>", run: signupCmd},
		"logout":   {usage: "logout", run: logoutCmd},
		"whoami":   {usage: "whoami", run: whoamiCmd},
		"status":   {usage: "status", run: statusCmd},
		"home":     {usage: "home", run: homeCmd},
		"products": {usage: "products [list | mine | add -n <name> -d <description> -p <price> | delete <id>]", run: productsCmd},
		"cart":     {usage: "cart [list | add <product id> [-q <quantity>] | remove <item id> | checkout]", run: cartCmd},
		"demo":     {usage: "demo", standalone: demoCmd},
	}
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: storefront <command>")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v (usage: %s)", fs.Name(), err, commands[fs.Name()].usage)
	}
	return nil
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	return a.auth.Login(ctx, *username, *password)
}

func signupCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("signup")
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	return a.auth.Signup(ctx, *username, *email, *password)
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	a.auth.Logout(ctx)
	return nil
}

func whoamiCmd(ctx context.Context, a *app, _ []string) error {
	identity := a.auth.Identity(ctx)
	if identity == nil || identity.Subject == "" {
		a.ui.Info("Not logged in")
		return nil
	}
	msg := "User " + identity.Subject
	if identity.Role != "" {
		msg += " (" + identity.Role + ")"
	}
	a.ui.Info(msg)
	return nil
}

func statusCmd(ctx context.Context, a *app, _ []string) error {
	a.ui.Info(fmt.Sprintf("Backend: %s", a.baseURL))
	a.ui.Info(fmt.Sprintf("Session: %s (%s)", a.auth.State(ctx), a.cfg.GetSessionBackend()))
	return nil
}

func homeCmd(ctx context.Context, a *app, _ []string) error {
	home, err := a.shop.LoadHome(ctx)
	if err != nil {
		return err
	}
	a.ui.ShowCartCount(home.CartCount)
	a.ui.ShowProducts(home.Featured, a.store.Get(ctx).AccessToken)
	// products are shown even when the cart count failed
	return home.CartErr
}

func productsCmd(ctx context.Context, a *app, args []string) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		products, err := a.shop.Products.List(ctx)
		if err != nil {
			return err
		}
		a.ui.ShowProducts(products, a.store.Get(ctx).AccessToken)
	case "mine":
		products, err := a.shop.Products.Mine(ctx)
		if err != nil {
			return err
		}
		a.ui.ShowProducts(products, a.store.Get(ctx).AccessToken)
	case "add":
		fs := newFlagSet("products")
		name := fs.String("n", "", "name")
		description := fs.String("d", "", "description")
		price := fs.Float64("p", 0, "price")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		created, err := a.shop.Products.Add(ctx, storefront.NewProduct{Name: *name, Description: *description, Price: *price})
		if err != nil {
			return err
		}
		a.ui.Info(fmt.Sprintf("Product #%d added", created.ID))
	case "delete":
		id, err := idArg(rest, "product id")
		if err != nil {
			return err
		}
		if err := a.shop.Products.Delete(ctx, id); err != nil {
			return err
		}
		a.ui.Info("Product deleted")
	default:
		return usagef("products: unknown subcommand %q (usage: %s)", sub, commands["products"].usage)
	}
	return nil
}

func cartCmd(ctx context.Context, a *app, args []string) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		items, err := a.shop.Cart.Items(ctx)
		if err != nil {
			return err
		}
		a.ui.ShowCart(items)
	case "add":
		id, err := idArg(rest, "product id")
		if err != nil {
			return err
		}
		fs := newFlagSet("cart")
		quantity := fs.Int("q", 0, "quantity")
		if err := parseFlags(fs, rest[1:]); err != nil {
			return err
		}
		if err := a.shop.Cart.Add(ctx, id, *quantity); err != nil {
			return err
		}
		a.ui.Info("Product added to cart")
	case "remove":
		id, err := idArg(rest, "cart item id")
		if err != nil {
			return err
		}
		if err := a.shop.Cart.Remove(ctx, id); err != nil {
			return err
		}
		a.ui.Info("Item removed from cart")
	case "checkout":
		items, err := a.shop.Cart.Items(ctx)
		if err != nil {
			return err
		}
		if err := a.shop.Checkout(ctx, items); errors.Is(err, storefront.ErrCheckoutUnsupported) {
			a.ui.Info("Checkout functionality would be implemented here!")
			return nil
		} else if err != nil {
			return err
		}
	default:
		return usagef("cart: unknown subcommand %q (usage: %s)", sub, commands["cart"].usage)
	}
	return nil
}

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 {
		return fallback, nil
	}
	return args[0], args[1:]
}

func idArg(args []string, what string) (int64, error) {
	if len(args) == 0 {
		return 0, usagef("missing %s", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s %q", what, args[0])
	}
	return id, nil
}
