package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	httpAdapter "github.com/prxgr4mmer/ally-watchlists/internal/adapters/http"
	"github.com/prxgr4mmer/ally-watchlists/internal/adapters/yamlfile"
	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/services"
	"github.com/prxgr4mmer/ally-watchlists/internal/worker"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return errors.Errorf("usage: watchlist %s", usage)
	}
	return nil
}

func runList(ctx context.Context, app *Application, args []string) error {
	names, err := app.collection.Names(ctx)
	if err != nil {
		return errors.Wrap(err, "list watchlists")
	}
	for _, name := range names {
		fmt.Fprintln(app.out, name)
	}
	return nil
}

func runShow(ctx context.Context, app *Application, args []string) error {
	if err := requireArgs(args, 1, "show NAME"); err != nil {
		return err
	}

	proxy, err := app.collection.Get(ctx, args[0])
	if err != nil {
		return errors.Wrapf(err, "show %s", args[0])
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tQTY\tCOST BASIS")
	for _, item := range proxy.Watchlist().Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Symbol, item.Quantity.String(), item.CostBasis.StringFixed(2))
	}
	return tw.Flush()
}

func runSet(ctx context.Context, app *Application, args []string) error {
	if err := requireArgs(args, 2, "set NAME SYMBOL..."); err != nil {
		return err
	}

	name, symbols := args[0], domain.NormalizeSymbols(args[1:])
	proxy, err := app.collection.Set(ctx, name, symbols...)
	if err != nil {
		return errors.Wrapf(err, "set %s", name)
	}

	fmt.Fprintf(app.out, "%s %s\n", name, proxy)
	return nil
}

func runAdd(ctx context.Context, app *Application, args []string) error {
	fs := newFlagSet("add")
	lazy := fs.Bool("lazy", false, "do not refresh the watchlist after adding")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 2, "add [--lazy] NAME SYMBOL..."); err != nil {
		return err
	}

	name, symbols := fs.Arg(0), domain.NormalizeSymbols(fs.Args()[1:])
	proxy, err := app.collection.Get(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "add to %s", name)
	}

	if *lazy {
		err = proxy.AddLazy(ctx, symbols...)
	} else {
		err = proxy.Add(ctx, symbols...)
	}
	if err != nil {
		return errors.Wrapf(err, "add to %s", name)
	}

	fmt.Fprintf(app.out, "%s %s\n", name, proxy)
	return nil
}

func runRemove(ctx context.Context, app *Application, args []string) error {
	if err := requireArgs(args, 2, "remove NAME SYMBOL"); err != nil {
		return err
	}

	name, symbol := args[0], domain.NormalizeSymbol(args[1])
	proxy, err := app.collection.Get(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "remove from %s", name)
	}
	if !proxy.Contains(symbol) {
		return errors.Errorf("%s is not in %s", symbol, name)
	}

	if err := proxy.Discard(ctx, symbol); err != nil {
		return errors.Wrapf(err, "remove %s from %s", symbol, name)
	}
	return nil
}

func runDelete(ctx context.Context, app *Application, args []string) error {
	if err := requireArgs(args, 1, "delete NAME"); err != nil {
		return err
	}

	if err := app.collection.Delete(ctx, args[0]); err != nil {
		return errors.Wrapf(err, "delete %s", args[0])
	}
	return nil
}

func runImport(ctx context.Context, app *Application, args []string) error {
	fs := newFlagSet("import")
	dryRun := fs.Bool("dry-run", false, "print what would be set without contacting the broker")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1, "import [--dry-run] FILE"); err != nil {
		return err
	}

	entries, err := yamlfile.Load(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "import")
	}

	for _, e := range entries {
		if *dryRun {
			fmt.Fprintf(app.out, "%s [%s]\n", e.Name, strings.Join(e.Symbols, ", "))
			continue
		}

		proxy, err := app.collection.Set(ctx, e.Name, e.Symbols...)
		if err != nil {
			return errors.Wrapf(err, "import %s", e.Name)
		}
		fmt.Fprintf(app.out, "%s %s\n", e.Name, proxy)
	}

	app.logger.Info("import finished", "watchlists", len(entries), "dry_run", *dryRun)
	return nil
}

func runDump(ctx context.Context, app *Application, args []string) error {
	fs := newFlagSet("dump")
	output := fs.StringP("output", "o", "", "write to FILE instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lists, err := app.snapshots.Snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "dump")
	}

	var w io.Writer = app.out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return errors.Wrap(err, "dump")
		}
		defer f.Close()
		w = f
	}

	return errors.Wrap(yamlfile.Encode(w, lists), "dump")
}

func runWatch(ctx context.Context, app *Application, args []string) error {
	fs := newFlagSet("watch")
	interval := fs.Duration("interval", app.cfg.Watch.Interval, "time between checks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs.Args(), 1, "watch [--interval D] NAME"); err != nil {
		return err
	}
	if *interval < time.Second {
		return errors.New("watch interval must be at least 1 second")
	}

	poller := app.newPoller(fs.Arg(0), *interval, func(e *domain.WatchEvent) {
		if !e.Changed() {
			return
		}
		fmt.Fprintf(app.out, "%s %s added=%v removed=%v\n",
			e.CheckedAt.Format(time.RFC3339), e.Name, e.Added, e.Removed)
	})

	if err := poller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "watch")
	}
	return nil
}

func runServe(ctx context.Context, app *Application, args []string) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", app.cfg.Server.Port, "listen port")
	watch := fs.String("watch", "", "also poll this watchlist and log its changes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	serverCfg := app.cfg.Server
	serverCfg.Port = *port

	server := httpAdapter.NewServer(serverCfg, app.collection, app.snapshots, app.metrics, app.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	var poller *worker.Poller
	if *watch != "" {
		poller = app.newPoller(*watch, app.cfg.Watch.Interval, nil)
		go func() {
			if err := poller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error("poller error", "error", err)
			}
		}()
	}

	app.logger.Info("application started", "http_addr", server.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("received shutdown signal")
	case serveErr = <-errCh:
	}

	if poller != nil {
		if poller.IsRunning() {
			if err := poller.Stop(); err != nil {
				app.logger.Error("failed to stop poller", "error", err)
			}
		}
		if n := poller.Failures(); n > 0 {
			app.logger.Warn("poller stopped while failing", "consecutive_failures", n)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("failed to shutdown http server", "error", err)
	}

	app.logger.Info("application shutdown complete")
	return serveErr
}

// newPoller watches name through a collection of its own, since the poller
// runs on a separate goroutine.
func (a *Application) newPoller(name string, interval time.Duration, onEvent worker.EventHandler) *worker.Poller {
	svc := services.NewWatchService(a.newCollection(), name, a.logger)
	return worker.NewPoller(svc, interval, a.logger, worker.WithEventHandler(onEvent))
}
