// Command fintrack is a command line client for the fintrack API.
//
//	fintrack register -username alice -email alice@example.com
//	fintrack login -email alice@example.com
//	fintrack add expense -amount 12.50 -description Lunch -category Food
//	fintrack list expenses
//	fintrack delete expense 01J...
//	fintrack summary -window month
//	fintrack logout
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
)

// cliConfig is read from the environment; flags override it.
type cliConfig struct {
	ServerURL string `env:"FINTRACK_URL" envDefault:"http://localhost:8080"`
	TokenFile string `env:"FINTRACK_TOKEN_FILE"`
	LogLevel  string `env:"FINTRACK_LOG_LEVEL" envDefault:"warn"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	app := &app{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger,
	}

	if err := app.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			if err != errUsage {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(2)
		}
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelWarn
	}
	return l
}

const usage = `usage: fintrack [-server URL] [-token-file PATH] <command> [flags]

commands:
  register  -username NAME -email EMAIL [-password PASSWORD]
  login     -email EMAIL [-password PASSWORD]
  logout
  add       <expense|income|investment> -amount N [-date YYYY-MM-DD] [kind flags]
  list      <expenses|incomes|investments>
  delete    <expense|income|investment> ID
  summary   [-window all|week|month|six_months|year|custom] [-start DATE] [-end DATE]
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}
