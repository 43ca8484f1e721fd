package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcenter/config"
	"callcenter/internal/capability"
	"callcenter/internal/transport"
	"callcenter/util"
)

func serverConfig() *config.Config {
	cfg := config.New()
	cfg.Listen = true
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

// TestBuild_Connect verifies that Build produces a ConnectMode for
// a simple console configuration.
func TestBuild_Connect(t *testing.T) {
	cfg := config.New()
	cfg.Host = "example.com"

	mode, err := Build(cfg, util.NewLogger(0))
	require.NoError(t, err)

	cm, ok := mode.(*ConnectMode)
	require.True(t, ok, "expected *ConnectMode, got %T", mode)
	assert.Equal(t, "example.com:5678", cm.Address)
	assert.IsType(t, &transport.TCPDialer{}, cm.Dialer)
	assert.IsType(t, &capability.Console{}, cm.Capability)
	assert.Nil(t, cm.Backoff, "no retries by default")
}

func TestBuild_ConnectRetriesAndTunnel(t *testing.T) {
	cfg := config.New()
	cfg.Host = "10.0.0.5"
	cfg.Retries = 3
	cfg.TunnelSpec = "ops@bastion"
	require.NoError(t, cfg.ApplyTunnelSpec())

	mode, err := Build(cfg, util.NewLogger(0))
	require.NoError(t, err)

	cm := mode.(*ConnectMode)
	require.NotNil(t, cm.Backoff)
	assert.Equal(t, 4, cm.Backoff.MaxAttempts)
	assert.IsType(t, &transport.SSHDialer{}, cm.Dialer)
}

// TestBuild_Listen verifies Build produces a wired ListenMode.
func TestBuild_Listen(t *testing.T) {
	mode, err := Build(serverConfig(), util.NewLogger(0))
	require.NoError(t, err)

	lm, ok := mode.(*ListenMode)
	require.True(t, ok, "expected *ListenMode, got %T", mode)
	assert.Equal(t, "127.0.0.1:0", lm.Address)
	assert.NotNil(t, lm.Loop)
	assert.Nil(t, lm.Web, "HTTP is off by default")

	d, ok := lm.Capability.(*capability.Dispatch)
	require.True(t, ok)
	assert.NotNil(t, d.Hub)
	assert.NotNil(t, d.Metrics)
}

func TestBuild_ListenWithHTTP(t *testing.T) {
	cfg := serverConfig()
	cfg.HTTPAddr = "127.0.0.1:0"

	mode, err := Build(cfg, util.NewLogger(0))
	require.NoError(t, err)

	lm := mode.(*ListenMode)
	require.NotNil(t, lm.Web)
	assert.Equal(t, "127.0.0.1:0", lm.Web.Addr)
	assert.Same(t, lm.Capability, lm.Web.Dispatch, "TCP and WebSocket share one dispatcher")
}

func TestBuild_ListenBadOperators(t *testing.T) {
	cfg := serverConfig()
	cfg.Operators = []string{"A", "A"}
	cfg.RingTimeout = time.Second

	_, err := Build(cfg, util.NewLogger(0))
	assert.Error(t, err)
}
