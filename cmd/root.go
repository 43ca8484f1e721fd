// Package cmd wires up the CLI flags and dispatches to the call-center
// core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"callcenter/config"
	"callcenter/internal/capability"
	"callcenter/internal/core"
	ccerr "callcenter/internal/errors"
	"callcenter/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X callcenter/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// output receives help, version and dry-run text.
var output io.Writer = os.Stderr //nolint:gochecknoglobals

// Execute parses args and runs the server (-l) or the operator console.
// Precedence is defaults, then CALLCENTER_* variables, then flags.
func Execute(ctx context.Context, args []string) error {
	cfg := config.New()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("callcenter", flag.ContinueOnError)
	fs.SetOutput(output)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Run the dispatcher server")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Server port")
	fs.IntVarP(&cfg.LocalPort, "source-port", "s", cfg.LocalPort, "Console source port")
	timeoutSec := fs.IntP("timeout", "w", int(cfg.Timeout/time.Second), "Dial timeout in seconds")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Extra dial attempts on refused connections")

	// ── dispatcher ───────────────────────────────────────────────
	operators := fs.StringP("operators", "o", strings.Join(cfg.Operators, ","), "Operator ids in preference order")
	ringTimeout := fs.String("ring-timeout", cfg.RingTimeout.String(), "How long a call rings before it is ignored")
	fs.BoolVar(&cfg.RequeueIgnored, "requeue-ignored", cfg.RequeueIgnored, "Requeue calls whose ring timed out")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Serve /metrics, /health, /status and /ws on this address")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the server via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	verbose := fs.CountP("verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable coloured console output")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(output, "callcenter %s\n", version)
		return nil
	}

	if fs.Changed("verbose") {
		cfg.Verbose += *verbose
	}
	if fs.Changed("timeout") {
		cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	}
	if fs.Changed("operators") {
		ids, err := config.ParseOperators(*operators)
		if err != nil {
			return &ccerr.ConfigError{Field: "operators", Value: *operators, Message: err.Error()}
		}
		cfg.Operators = ids
	}
	if fs.Changed("ring-timeout") {
		d, err := config.ParseDuration(*ringTimeout)
		if err != nil {
			return &ccerr.ConfigError{Field: "ring-timeout", Value: *ringTimeout,
				Message: "not a duration", Hint: "e.g. 10s, 1m or 30"}
		}
		cfg.RingTimeout = d
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec and validation ───────────────────────────────
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DryRun {
		printConfig(cfg)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional reads "[host] [port]" for the server and
// "host [port]" for the console.
func parsePositional(cfg *config.Config, remaining []string) error {
	if len(remaining) > 2 {
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	if len(remaining) >= 1 {
		cfg.Host = remaining[0]
	}
	if len(remaining) == 2 {
		port, err := strconv.Atoi(remaining[1])
		if err != nil {
			return &ccerr.ConfigError{Field: "port", Value: remaining[1], Message: "not a number"}
		}
		cfg.Port = port
	}
	return nil
}

func printConfig(cfg *config.Config) {
	if cfg.Listen {
		fmt.Fprintf(output, "server on %s\n", util.ListenAddr(cfg.Host, cfg.Port))
		fmt.Fprintf(output, "  operators:       %s\n", strings.Join(cfg.Operators, ","))
		fmt.Fprintf(output, "  ring timeout:    %v\n", cfg.RingTimeout)
		fmt.Fprintf(output, "  requeue ignored: %v\n", cfg.RequeueIgnored)
		if cfg.HTTPAddr != "" {
			fmt.Fprintf(output, "  http:            %s\n", cfg.HTTPAddr)
		}
		return
	}
	fmt.Fprintf(output, "console to %s\n", util.FormatAddr(cfg.Host, cfg.Port))
	fmt.Fprintf(output, "  timeout:         %v\n", cfg.Timeout)
	fmt.Fprintf(output, "  retries:         %d\n", cfg.Retries)
	if cfg.TunnelEnabled {
		fmt.Fprintf(output, "  via:             %s\n", util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(output, `callcenter %s

A call-center dispatcher: operators, a waiting queue and ring timeouts,
driven over TCP, WebSocket or an interactive console.

Usage:
  callcenter -l [options] [host] [port]        Run the dispatcher
  callcenter [options] <host> [port]           Operator console
  callcenter -T user@gateway <host> [port]     Console via SSH gateway

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(output, `
%s

Examples:
  callcenter -l -o A,B,C --ring-timeout 15s    Three operators
  callcenter -l --http-addr :9090              With metrics and /ws
  callcenter localhost                         Connect a console
  printf 'call 1\nanswer A\n' | callcenter localhost
`, capability.Help())
}
