package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"budgetboard/internal/budgetapi"
	"budgetboard/internal/cli"
	"budgetboard/internal/config"
	"budgetboard/internal/dashboard"
	applog "budgetboard/internal/log"
	"budgetboard/internal/render"
)

var version = "dev"

// app is what every subcommand works with once flags are parsed.
type app struct {
	controller *dashboard.Controller
	renderer   *cli.Renderer
	now        func() time.Time
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
}

type rootOptions struct {
	apiURL   string
	logLevel string
	locale   string
	currency string
}

func newRootCmd(defaults *config.Config, now func() time.Time, in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := rootOptions{
		apiURL:   defaults.APIBaseURL,
		logLevel: "warn",
		locale:   defaults.Locale,
		currency: defaults.CurrencySymbol,
	}
	a := &app{now: now, in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Monthly budget dashboard in the terminal",
		Long:          "budgetctl reads and edits the monthly budget through the budget API and prints the dashboard.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(opts)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", opts.apiURL, "base URL of the budget API")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.locale, "locale", opts.locale, "locale used to format numbers")
	flags.StringVar(&opts.currency, "currency", opts.currency, "currency symbol")

	root.AddCommand(summaryCmd(a))
	root.AddCommand(incomeCmd(a))
	root.AddCommand(expenseCmd(a))
	return root
}

func (a *app) init(opts rootOptions) error {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(opts.logLevel),
		Component: applog.ComponentCLI,
		Output:    a.errOut,
	})
	format, err := render.NewNumberFormat(opts.locale, opts.currency)
	if err != nil {
		return err
	}
	api, err := budgetapi.New(opts.apiURL, budgetapi.WithLogger(logger))
	if err != nil {
		return err
	}
	a.controller = dashboard.NewController(api, dashboard.NewRefresher(api, format, logger), logger)
	a.renderer = cli.NewRenderer(a.out, format.CurrencySymbol())
	return nil
}

// show prints the view after a controller call. A refresh that failed after
// a successful action still prints whatever part of it was loaded.
func (a *app) show(v *dashboard.View, err error) error {
	if fe, ok := dashboard.AsFeedback(err); ok {
		if !fe.Stale || !v.Snapshot().Loaded {
			return fmt.Errorf("%s", fe.Message)
		}
		fmt.Fprintln(a.errOut, "warning:", fe.Message)
	} else if err != nil {
		return err
	}
	return a.renderer.Render(v.Snapshot())
}

func main() {
	config.LoadEnvFile()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg, time.Now, os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
