// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

// Command shopctl is an interactive terminal storefront for MotoWorld.
//
// It is a thin projection over the storefront client: all state (identity,
// tokens, cart, catalog filters) lives in internal/storefront, persisted to
// ~/.shopctl/state.json the way the browser persists to localStorage.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/motoworld/api/internal/storefront"
)

func main() {
	baseURL := flag.String("api", defaultBaseURL(), "MotoWorld API base URL")
	stateFile := flag.String("state", defaultStatePath(), "local state file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	storage, err := storefront.NewFileStorage(*stateFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}

	client, err := storefront.NewClient(*baseURL, storage, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}

	app := &app{
		session: storefront.NewSession(client, storage, logger),
		catalog: storefront.NewCatalogController(client, logger),
		client:  client,
		scanner: bufio.NewScanner(os.Stdin),
	}
	app.cart = storefront.NewCartManager(client, app.session, logger)

	app.run(context.Background())
}

func defaultBaseURL() string {
	if url := os.Getenv("SHOP_API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopctl/state.json"
	}
	return filepath.Join(home, ".shopctl", "state.json")
}

// # Application Loop

type app struct {
	session *storefront.Session
	cart    *storefront.CartManager
	catalog *storefront.CatalogController
	client  *storefront.Client
	scanner *bufio.Scanner
}

func (app *app) run(context context.Context) {
	// Mirror the page-load sequence: resolve identity once, then hydrate
	// the cart if someone is signed in.
	identity := app.session.ResolveIdentity(context)
	if identity != nil {
		app.cart.Load(context)
		fmt.Printf("Welcome back, %s.\n", identity.DisplayName())
	}

	fmt.Println("MotoWorld shopctl (type 'help' for commands)")

	for {
		fmt.Printf("shopctl %s > ", app.prompt())
		if !app.scanner.Scan() {
			return
		}

		parts := strings.Fields(app.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		command, args := parts[0], parts[1:]

		switch command {
		case "help":
			app.help()
		case "login":
			app.login(context)
		case "register":
			app.register(context)
		case "logout":
			app.session.Logout(context)
			app.cart.Load(context)
			fmt.Println("Signed out.")
		case "whoami":
			app.whoami()
		case "browse":
			app.browse(context)
		case "filter":
			app.filter(context, args)
		case "page":
			app.page(context, args)
		case "suggest":
			app.suggest(context, args)
		case "cart":
			app.showCart(context)
		case "add":
			app.add(context, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", command)
		}
	}
}

func (app *app) prompt() string {
	identity := app.session.Current()
	if identity == nil {
		return "guest"
	}
	if count := app.cart.TotalCount(); count > 0 {
		return fmt.Sprintf("%s [cart:%d]", identity.Username, count)
	}
	return identity.Username
}

func (app *app) help() {
	fmt.Println("Commands:")
	fmt.Println("  login / register / logout / whoami")
	fmt.Println("  browse                      fetch the current catalog page")
	fmt.Println("  filter <key> [value]        set or clear a filter (search, category, brand, price_min, price_max)")
	fmt.Println("  page <n>                    jump to page n")
	fmt.Println("  suggest <text>              search typeahead")
	fmt.Println("  cart                        show the server cart")
	fmt.Println("  add <product-id> [qty]      add a product to the cart")
	fmt.Println("  exit")
}

// # Identity Commands

func (app *app) login(context context.Context) {
	username, err := app.readLine("Username: ")
	if err != nil {
		return
	}
	password, err := readPassword()
	if err != nil {
		fmt.Println("shopctl:", err)
		return
	}

	identity, err := app.session.Login(context, username, string(password))
	if err != nil {
		fmt.Println("Login failed:", err)
		return
	}

	fmt.Printf("Signed in as %s.\n", identity.DisplayName())
	app.cart.Load(context)
}

func (app *app) register(context context.Context) {
	username, err := app.readLine("Username: ")
	if err != nil {
		return
	}
	email, err := app.readLine("Email: ")
	if err != nil {
		return
	}
	password, err := readPassword()
	if err != nil {
		fmt.Println("shopctl:", err)
		return
	}

	identity, err := app.client.Register(context, storefront.RegisterInput{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}

	fmt.Printf("Account created. Signed in as %s.\n", identity.Username)
	app.session.ResolveIdentity(context)
	app.cart.Load(context)
}

func (app *app) whoami() {
	identity := app.session.Current()
	if identity == nil {
		fmt.Println("Browsing as a guest.")
		return
	}
	fmt.Printf("%s <%s> role=%s\n", identity.Username, identity.Email, identity.Role)
}

// # Catalog Commands

func (app *app) browse(context context.Context) {
	page, err := app.catalog.Refetch(context)
	if err != nil {
		fmt.Println("Catalog unavailable:", err)
		return
	}

	fmt.Printf("Page %d — %d products total\n", app.catalog.Page(), page.Count)
	for _, product := range page.Results {
		price := fmt.Sprintf("$%.2f", product.Price)
		if product.SalePrice != nil {
			price = fmt.Sprintf("$%.2f (was $%.2f)", *product.SalePrice, product.Price)
		}
		fmt.Printf("  #%-5d %-40s %-12s %s\n", product.ID, product.Name, product.Brand, price)
	}

	switch {
	case page.HasNext() && page.HasPrev():
		fmt.Println("  … more pages either way ('page <n>')")
	case page.HasNext():
		fmt.Println("  … more on the next page")
	case page.HasPrev():
		fmt.Println("  … earlier pages available")
	}
}

func (app *app) filter(context context.Context, args []string) {
	if len(args) == 0 {
		for key, value := range app.catalog.Filters() {
			fmt.Printf("  %s = %s\n", key, value)
		}
		return
	}

	value := ""
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}
	app.catalog.SetFilter(args[0], value)
	app.browse(context)
}

func (app *app) page(context context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: page <n>")
		return
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("Usage: page <n>")
		return
	}
	app.catalog.SetPage(number)
	app.browse(context)
}

func (app *app) suggest(context context.Context, args []string) {
	query := strings.Join(args, " ")

	done := make(chan struct{})
	app.catalog.Suggest(context, query, func(groups *storefront.SuggestionGroups) {
		defer close(done)
		if len(groups.Products)+len(groups.Categories)+len(groups.Brands) == 0 {
			fmt.Println("No suggestions.")
			return
		}
		for _, product := range groups.Products {
			fmt.Printf("  product:  %s ($%.2f)\n", product.Name, product.Price)
		}
		for _, category := range groups.Categories {
			fmt.Printf("  category: %s\n", category.Name)
		}
		for _, brand := range groups.Brands {
			fmt.Printf("  brand:    %s\n", brand)
		}
	})
	<-done
}

// # Cart Commands

func (app *app) showCart(context context.Context) {
	items := app.cart.Load(context)
	if len(items) == 0 {
		fmt.Println("Cart is empty.")
		return
	}

	for _, item := range items {
		fmt.Printf("  %dx %-40s $%.2f\n", item.Quantity, item.ProductName, item.Subtotal)
	}
	fmt.Printf("  %d items total\n", app.cart.TotalCount())
}

func (app *app) add(context context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: add <product-id> [qty]")
		return
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: add <product-id> [qty]")
		return
	}

	quantity := 1
	if len(args) > 1 {
		if quantity, err = strconv.Atoi(args[1]); err != nil {
			fmt.Println("Usage: add <product-id> [qty]")
			return
		}
	}

	switch err := app.cart.AddItem(context, productID, nil, quantity); {
	case errors.Is(err, storefront.ErrAuthRequired):
		fmt.Println("Please 'login' before adding to your cart.")
	case err != nil:
		fmt.Println("Could not add item:", err)
	default:
		fmt.Printf("Added. Cart now holds %d items.\n", app.cart.TotalCount())
	}
}

// # Terminal Input

func (app *app) readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	if !app.scanner.Scan() {
		return "", fmt.Errorf("shopctl: input closed")
	}
	return strings.TrimSpace(app.scanner.Text()), nil
}

// readPassword reads without echo, keeping credentials off the scrollback.
func readPassword() ([]byte, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	return password, err
}
