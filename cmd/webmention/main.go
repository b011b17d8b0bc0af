// Command webmention sends, discovers, verifies and receives webmentions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-command"
	webmention "github.com/goliatone/go-webmention"
	"github.com/goliatone/go-webmention/adapters/gocommand"
	"github.com/goliatone/go-webmention/adapters/gologger"
	"github.com/goliatone/go-webmention/core"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"
)

const usage = `webmention <command> [flags]

Commands:
  send <source> <target>     discover the target's endpoint and notify it
  discover <target>          print the endpoint a target advertises
  verify <source> <target>   check that source links to target
  serve                      run a receiving endpoint

Run "webmention <command> --help" for command flags.
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	name, rest := args[0], args[1:]

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var global globalFlags
	bindGlobalFlags(fs, &global)

	runtime := core.Config{}
	switch name {
	case "send", "discover", "verify":
	case "serve":
		fs.StringVar(&runtime.Server.Address, "address", "", "Listen address")
		fs.StringVar(&runtime.Receiver.Path, "path", "", "Path of the receiving endpoint")
		fs.StringSliceVar(&runtime.Receiver.AllowedTargetHosts, "allow-host", nil, "Accept only targets on this host (repeatable)")
	case "help", "-h", "--help":
		fmt.Fprint(stderr, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return errUsage
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	base := global.runtime()
	runtime.UserAgent = base.UserAgent
	runtime.LogLevel = base.LogLevel
	runtime.Transport = base.Transport
	cfg, err := resolveConfig(ctx, global, runtime)
	if err != nil {
		return err
	}

	logger := gologger.NewPtermLogger(cfg.ServiceName, gologger.PtermOptions{
		Level:  cfg.LogLevel,
		Writer: stderr,
		JSON:   global.jsonLogs,
	})

	if name == "serve" {
		return serve(ctx, cfg, logger)
	}

	svc, err := webmention.New(cfg, webmention.WithLoggerProvider(logger))
	if err != nil {
		return err
	}
	facade, err := webmention.NewFacade(svc)
	if err != nil {
		return err
	}
	bus := gocommand.NewBus(command.NewRegistry())
	if err := facade.Register(bus); err != nil {
		return err
	}
	defer bus.Close()

	positional := fs.Args()
	switch name {
	case "send":
		if len(positional) != 2 {
			return fmt.Errorf("%w: send requires <source> <target>", errUsage)
		}
		return runSend(ctx, positional[0], positional[1])
	case "discover":
		if len(positional) != 1 {
			return fmt.Errorf("%w: discover requires <target>", errUsage)
		}
		return runDiscover(ctx, positional[0])
	default:
		if len(positional) != 2 {
			return fmt.Errorf("%w: verify requires <source> <target>", errUsage)
		}
		return runVerify(ctx, positional[0], positional[1])
	}
}

func runSend(ctx context.Context, source string, target string) error {
	result, err := gocommand.Send(ctx, source, target)
	if err != nil {
		if result.Outcome.StatusCode != 0 {
			pterm.Warning.Printfln("endpoint answered %d %s", result.Outcome.StatusCode, result.Outcome.Reason)
		}
		return err
	}

	rows := pterm.TableData{
		{"Field", "Value"},
		{"Endpoint", result.Endpoint.String()},
		{"Signal", string(result.Signal)},
		{"Status", fmt.Sprintf("%d %s", result.Outcome.StatusCode, result.Outcome.Reason)},
	}
	if monitor, ok := result.Outcome.MonitorLocation.Get(); ok {
		rows = append(rows, []string{"Monitor", monitor.String()})
	}
	pterm.Success.Println("webmention accepted")
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(rows).Render()
}

func runDiscover(ctx context.Context, target string) error {
	result, err := gocommand.Discover(ctx, target)
	if err != nil {
		return err
	}
	endpoint, ok := result.Endpoint.Get()
	if !ok {
		pterm.Warning.Printfln("%s does not advertise a webmention endpoint", target)
		return nil
	}
	pterm.Info.Printfln("endpoint found via %s", result.Signal)
	pterm.Println(endpoint.String())
	return nil
}

func runVerify(ctx context.Context, source string, target string) error {
	result, err := gocommand.Verify(ctx, source, target)
	if err != nil {
		return err
	}
	if !result.Valid {
		return core.VerificationRejected(nil, "source does not link to target", map[string]any{
			"source": source,
			"target": target,
		})
	}
	pterm.Success.Printfln("%s links to %s", source, target)
	return nil
}
