// Command bilancio-client is a terminal client for the bilancio API. It
// keeps the signed-in session in a local file so commands compose like:
//
//	bilancio-client login -email me@example.com -password secret
//	bilancio-client add -type expense -amount 12.50 -category Food -title Lunch
//	bilancio-client summary
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/remote"
	"bilancio/internal/session"
)

const commandTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	// The CLI writes results to stdout; logs stay on stderr and default to
	// warnings so they do not pollute scripted output.
	level := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelWarn
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentClient,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})
	log.SetDefault(logger)

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	sync := session.New(
		remote.NewClient(cfg.APIBaseURL),
		session.WithStore(session.NewFileStore(cfg.SessionFile)),
		session.WithLogger(logger.Logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := run(ctx, sync, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, sync *session.Synchronizer, command string, args []string) error {
	switch command {
	case "register":
		return cmdRegister(ctx, sync, args)
	case "login":
		return cmdLogin(ctx, sync, args)
	case "logout":
		sync.Logout()
		fmt.Println("Signed out.")
		return nil
	case "list":
		return cmdList(ctx, sync)
	case "add":
		return cmdAdd(ctx, sync, args)
	case "update":
		return cmdUpdate(ctx, sync, args)
	case "delete":
		return cmdDelete(ctx, sync, args)
	case "summary":
		return cmdSummary(ctx, sync)
	case "categories":
		return cmdCategories(ctx, sync, args)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: bilancio-client <command> [flags]

Commands:
  register    -username -email -password     create an account and sign in
  login       -email -password               sign in
  logout                                     sign out and clear the session
  list                                       print the transaction list
  add         -type -amount -category -title [-description] [-date]
  update      -id [-amount] [-category] [-title] [-description] [-date]
  delete      -id                            remove a transaction
  summary                                    balance and per-category totals
  categories  [-type income|expense]         selectable categories
`)
}

// restore signs the synchronizer in from the session file. Commands that
// need a session call this first.
func restore(ctx context.Context, sync *session.Synchronizer) error {
	ok, err := sync.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not signed in, run login first")
	}
	return nil
}

func cmdRegister(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if err := sync.Register(ctx, *username, *email, *password); err != nil {
		return err
	}
	fmt.Printf("Account created. Signed in as %s.\n", sync.Snapshot().User.Username)
	return nil
}

func cmdLogin(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if err := sync.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", sync.Snapshot().User.Username)
	return nil
}

func cmdList(ctx context.Context, sync *session.Synchronizer) error {
	if err := restore(ctx, sync); err != nil {
		return err
	}
	snap := sync.Snapshot()
	if len(snap.Transactions) == 0 {
		fmt.Println("No transactions.")
		return nil
	}
	for _, tx := range snap.Transactions {
		sign := "+"
		if tx.Type == core.Expense {
			sign = "-"
		}
		fmt.Printf("%s  %s  %s%-12s %-14s %s\n",
			tx.ID, tx.Date, sign, sync.FormatAmount(tx.Amount), tx.Category, tx.Title)
	}
	return nil
}

func cmdAdd(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	typ := fs.String("type", "expense", "income or expense")
	amount := fs.String("amount", "", "decimal amount, e.g. 12.50")
	category := fs.String("category", "", "category name")
	title := fs.String("title", "", "short title")
	description := fs.String("description", "", "optional description")
	date := fs.String("date", "", "YYYY-MM-DD, defaults to today")
	fs.Parse(args)

	if err := restore(ctx, sync); err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	tx, err := sync.AddTransaction(ctx, core.TransactionDraft{
		Type:        core.TransactionType(*typ),
		Amount:      core.Money{Cents: cents},
		Category:    *category,
		Title:       *title,
		Description: *description,
		Date:        *date,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s %s).\n", tx.ID, tx.Title, sync.FormatAmount(tx.Amount))
	return nil
}

func cmdUpdate(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "transaction id")
	amount := fs.String("amount", "", "new decimal amount")
	category := fs.String("category", "", "new category")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	date := fs.String("date", "", "new date, YYYY-MM-DD")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("update requires -id")
	}
	if err := restore(ctx, sync); err != nil {
		return err
	}

	// Only flags the caller actually set become part of the patch, so an
	// empty -title is distinguishable from an omitted one.
	var patch core.TransactionPatch
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "amount":
			cents, err := core.ParseDecimalToCents(*amount)
			if err != nil {
				parseErr = fmt.Errorf("amount: %w", err)
				return
			}
			patch.Amount = &core.Money{Cents: cents}
		case "category":
			patch.Category = category
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "date":
			patch.Date = date
		}
	})
	if parseErr != nil {
		return parseErr
	}

	tx, err := sync.UpdateTransaction(ctx, *id, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s.\n", tx.ID)
	return nil
}

func cmdDelete(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "transaction id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("delete requires -id")
	}
	if err := restore(ctx, sync); err != nil {
		return err
	}
	if err := sync.DeleteTransaction(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s.\n", *id)
	return nil
}

func cmdSummary(ctx context.Context, sync *session.Synchronizer) error {
	if err := restore(ctx, sync); err != nil {
		return err
	}
	snap := sync.Snapshot()
	fmt.Printf("Balance:  %s\n", sync.FormatAmount(snap.Summary.Balance))
	fmt.Printf("Income:   %s\n", sync.FormatAmount(snap.Summary.IncomeTotal))
	fmt.Printf("Expenses: %s\n", sync.FormatAmount(snap.Summary.ExpenseTotal))
	if len(snap.Summary.CategoryTotals) > 0 {
		fmt.Println("\nBy category:")
		for _, ct := range snap.Summary.CategoryTotals {
			fmt.Printf("  %-16s %s\n", ct.Category, sync.FormatAmount(ct.Total))
		}
	}
	return nil
}

func cmdCategories(ctx context.Context, sync *session.Synchronizer, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	typ := fs.String("type", "expense", "income or expense")
	fs.Parse(args)

	if err := restore(ctx, sync); err != nil {
		return err
	}
	options := sync.CategoryOptions(core.TransactionType(*typ))
	fmt.Println(strings.Join(options, "\n"))
	return nil
}
