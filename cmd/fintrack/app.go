package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/fintrack/fintrack/internal/client"
	"github.com/fintrack/fintrack/internal/handler/dto"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/summary"
)

var errUsage = errors.New("usage")

// readPassword reads without echo; replaced in tests.
var readPassword = term.ReadPassword

type app struct {
	cfg    cliConfig
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fintrack", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { printUsage(a.stderr) }
	fs.StringVar(&a.cfg.ServerURL, "server", a.cfg.ServerURL, "API base URL")
	fs.StringVar(&a.cfg.TokenFile, "token-file", a.cfg.TokenFile, "session token file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(a.stderr)
		return errUsage
	}

	c, err := a.client()
	if err != nil {
		return err
	}

	cmd, cmdArgs := rest[0], rest[1:]
	a.logger.Debug("running command", "command", cmd, "server", a.cfg.ServerURL)

	switch cmd {
	case "register":
		return a.register(ctx, c, cmdArgs)
	case "login":
		return a.login(ctx, c, cmdArgs)
	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Logged out")
		return nil
	case "add":
		return a.add(ctx, c, cmdArgs)
	case "list":
		return a.list(ctx, c, cmdArgs)
	case "delete":
		return a.delete(ctx, c, cmdArgs)
	case "summary":
		return a.summary(ctx, c, cmdArgs)
	case "help", "-h", "--help":
		printUsage(a.stdout)
		return nil
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n", cmd)
		printUsage(a.stderr)
		return errUsage
	}
}

func (a *app) client() (*client.Client, error) {
	path := a.cfg.TokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}

	opts := []client.Option{client.WithTokenStore(client.NewFileTokenStore(path))}
	if a.now != nil {
		opts = append(opts, client.WithClock(a.now))
	}
	return client.New(a.cfg.ServerURL, opts...)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) register(ctx context.Context, c *client.Client, args []string) error {
	fs := a.flags("register")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	user, err := c.Register(ctx, *username, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Registered %s <%s>\n", user.Username, user.Email)
	return nil
}

func (a *app) login(ctx context.Context, c *client.Client, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	user, err := c.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", user.Username)
	return nil
}

// password returns given, or prompts for one. A terminal is read without
// echo; anything else is read as a single line.
func (a *app) password(given string) (string, error) {
	if given != "" {
		return given, nil
	}

	fmt.Fprint(a.stderr, "Password: ")
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseKind accepts singular or plural kind names.
func parseKind(s string) (model.Kind, error) {
	s = strings.ToLower(s)
	if k := model.Kind(s); k.IsValid() {
		return k, nil
	}
	if k, ok := model.KindFromCollection(s); ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

func (a *app) add(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: add needs a kind", errUsage)
	}
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	fs := a.flags("add " + string(kind))
	amountFlag := fs.String("amount", "", "amount")
	dateFlag := fs.String("date", "", "date (YYYY-MM-DD), defaults to now")
	var req dto.RecordRequest
	switch kind {
	case model.KindExpense:
		fs.StringVar(&req.Description, "description", "", "description")
		fs.StringVar(&req.Category, "category", "", strings.Join(model.ExpenseCategories, "|"))
	case model.KindIncome:
		fs.StringVar(&req.Source, "source", "", "income source")
	case model.KindInvestment:
		fs.StringVar(&req.Name, "name", "", "investment name")
		fs.StringVar(&req.Type, "type", "", strings.Join(model.InvestmentTypes, "|"))
	}
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	if *amountFlag != "" {
		amount, err := decimal.NewFromString(*amountFlag)
		if err != nil {
			return fmt.Errorf("invalid amount %q", *amountFlag)
		}
		req.Amount = &amount
	}
	if *dateFlag != "" {
		raw, _ := json.Marshal(*dateFlag)
		var d dto.Date
		if err := d.UnmarshalJSON(raw); err != nil {
			return err
		}
		req.Date = &d
	}

	record, err := c.Create(ctx, kind, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Added %s %s\n", kind, record.ID)
	return nil
}

func (a *app) list(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: list needs a kind", errUsage)
	}
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	records, err := c.List(ctx, kind)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	switch kind {
	case model.KindExpense:
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	case model.KindIncome:
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tSOURCE\t")
	case model.KindInvestment:
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tTYPE\tNAME")
	}
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date.Format("2006-01-02"), r.Amount.StringFixed(2), r.Category, r.Label)
	}
	return tw.Flush()
}

func (a *app) delete(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: delete needs a kind and an id", errUsage)
	}
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, kind, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted %s %s\n", kind, args[1])
	return nil
}

func (a *app) summary(ctx context.Context, c *client.Client, args []string) error {
	fs := a.flags("summary")
	window := fs.String("window", "all", "all|week|month|six_months|year|custom")
	start := fs.String("start", "", "custom window start")
	end := fs.String("end", "", "custom window end")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	w, err := summary.ParseWindow(*window, *start, *end, summary.CalendarZone)
	if err != nil {
		return err
	}

	s, err := c.Summary(ctx, w)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", s.Totals.Income.StringFixed(2))
	fmt.Fprintf(tw, "Expenses\t%s\n", s.Totals.Expenses.StringFixed(2))
	fmt.Fprintf(tw, "Investments\t%s\n", s.Totals.Investments.StringFixed(2))
	fmt.Fprintf(tw, "Net worth\t%s\n", s.NetWorth.StringFixed(2))
	if len(s.Categories.Expenses) > 0 {
		fmt.Fprintln(tw, "\t")
		for _, ct := range s.Categories.Expenses {
			fmt.Fprintf(tw, "  %s\t%s\n", ct.Category, ct.Amount.StringFixed(2))
		}
	}
	return tw.Flush()
}
