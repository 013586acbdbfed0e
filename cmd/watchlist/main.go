package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/prxgr4mmer/ally-watchlists/internal/config"
)

const usage = `Usage: watchlist [--config FILE] COMMAND [ARGS]

Commands:
  list                      print the names of all watchlists
  show NAME                 print the items of a watchlist
  set NAME SYMBOL...        replace a watchlist with the given symbols
  add [--lazy] NAME SYMBOL...
                            add symbols to a watchlist
  remove NAME SYMBOL        remove a symbol from a watchlist
  delete NAME               delete a watchlist
  import FILE               replace every watchlist defined in a YAML file
  dump [--output FILE]      write every watchlist as YAML
  watch [--interval D] NAME report changes to a watchlist until interrupted
  serve [--watch NAME]      run the HTTP API
`

type command func(ctx context.Context, app *Application, args []string) error

var commands = map[string]command{
	"list":   runList,
	"show":   runShow,
	"set":    runSet,
	"add":    runAdd,
	"remove": runRemove,
	"delete": runDelete,
	"import": runImport,
	"dump":   runDump,
	"watch":  runWatch,
	"serve":  runServe,
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("watchlist", flag.ContinueOnError)
	global.SetInterspersed(false)
	configFile := global.String("config", "", "YAML config file (overrides "+config.ConfigFileEnv+")")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("no command given")
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		global.Usage()
		return errors.Errorf("unknown command %q", name)
	}

	if *configFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, *configFile); err != nil {
			return errors.Wrap(err, "set config file")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	app, err := buildApplication(cfg, stdout, logger)
	if err != nil {
		return errors.Wrap(err, "build application")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd(ctx, app, global.Args()[1:])
}

// initLogger writes to stderr so command output on stdout stays clean
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
