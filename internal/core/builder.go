package core

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"callcenter/config"
	"callcenter/internal/capability"
	"callcenter/internal/dispatch"
	"callcenter/internal/metrics"
	"callcenter/internal/retry"
	"callcenter/internal/session"
	"callcenter/internal/transport"
	"callcenter/util"
)

// Build constructs the appropriate Mode from the given configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.Listen {
		return buildListen(cfg, logger)
	}
	return buildConnect(cfg, logger)
}

// ── mode builders ────────────────────────────────────────────────────

func buildListen(cfg *config.Config, logger *util.Logger) (Mode, error) {
	m := metrics.New()
	hub := session.NewHub()

	// The scheduler needs the loop's Deliver and the loop needs the
	// dispatcher, so Deliver is filled in last.
	sched := &dispatch.AfterFuncScheduler{Delay: cfg.RingTimeout}
	d, err := dispatch.New(dispatch.Options{
		Operators:      cfg.Operators,
		Scheduler:      sched,
		RequeueIgnored: cfg.RequeueIgnored,
		Logger:         logger.With("dispatch"),
		Metrics:        m,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	loop := dispatch.NewLoop(d, hub, logger.With("dispatch"))
	sched.Deliver = loop.Deliver

	serve := &capability.Dispatch{Handler: loop, Hub: hub, Metrics: m}

	mode := &ListenMode{
		Address:    util.ListenAddr(cfg.Host, cfg.Port),
		Loop:       loop,
		Capability: serve,
		Logger:     logger,
	}
	if cfg.HTTPAddr != "" {
		mode.Web = &WebServer{
			Addr:     cfg.HTTPAddr,
			Status:   loop,
			Dispatch: serve,
			Metrics:  m,
			Logger:   logger.With("http"),
		}
	}

	logger.Verbose("operators %v, ring timeout %v, requeue ignored %v",
		cfg.Operators, cfg.RingTimeout, cfg.RequeueIgnored)
	return mode, nil
}

func buildConnect(cfg *config.Config, logger *util.Logger) (Mode, error) {
	return &ConnectMode{
		Dialer:     transport.New(sshConfig(cfg), cfg.Timeout, cfg.LocalPort, logger),
		Capability: buildConsole(cfg),
		Address:    util.FormatAddr(cfg.Host, cfg.Port),
		Backoff:    buildBackoff(cfg),
		Logger:     logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// sshConfig returns the gateway settings, or nil without -T.
func sshConfig(cfg *config.Config) *transport.SSHConfig {
	if !cfg.TunnelEnabled {
		return nil
	}
	return &transport.SSHConfig{
		User:          cfg.TunnelUser,
		Host:          cfg.TunnelHost,
		Port:          cfg.TunnelPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
	}
}

// buildConsole prompts only for a human at a terminal and colours
// output only when it goes to one.
func buildConsole(cfg *config.Config) *capability.Console {
	return &capability.Console{
		Prompt: term.IsTerminal(int(os.Stdin.Fd())),
		Styled: !cfg.NoColor && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// buildBackoff returns nil when retries are disabled.
func buildBackoff(cfg *config.Config) *retry.Backoff {
	if cfg.Retries <= 0 {
		return nil
	}
	return &retry.Backoff{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		MaxAttempts:  cfg.Retries + 1,
		Jitter:       true,
	}
}
