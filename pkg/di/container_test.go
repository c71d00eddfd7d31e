package di

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/vifgate/pkg/api"
	"github.com/ssargent/vifgate/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Gateway.Host = "venue.example"
	cfg.Gateway.SiteName = "BARKER"
	cfg.Gateway.AuthKey = "KEY"
	cfg.Gateway.AgentNo = "7"
	cfg.Journal.Dir = t.TempDir()
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c := NewContainer(cfg, nil)
	c.SetRegisterer(prometheus.NewRegistry())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGatewayConfig(t *testing.T) {
	g := config.Gateway{
		Host:        "venue.example",
		Port:        4017,
		Timeout:     3 * time.Second,
		SiteName:    "BARKER",
		AuthKey:     "KEY",
		AgentNo:     "7",
		Comment:     "box office",
		GatewayType: 1,
	}

	got := GatewayConfig(g)
	assert.Equal(t, "venue.example", got.Host)
	assert.Equal(t, 4017, got.Port)
	assert.Equal(t, 3*time.Second, got.Timeout)
	assert.Equal(t, "BARKER", got.SiteName)
	assert.Equal(t, "KEY7", got.AuthInfo())
	assert.Equal(t, "box office", got.Comment)
	assert.Equal(t, 1, got.GatewayType)
}

func TestContainer_Gateway(t *testing.T) {
	c := newTestContainer(t, testConfig(t))

	gw, err := c.Gateway()
	require.NoError(t, err)
	assert.Equal(t, "venue.example:4016", gw.Addr())

	again, err := c.Gateway()
	require.NoError(t, err)
	assert.Same(t, gw, again)
}

func TestContainer_ServerDependencies(t *testing.T) {
	c := newTestContainer(t, testConfig(t))

	deps, err := c.ServerDependencies(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, deps.Venue)
	assert.NotNil(t, deps.Metrics)
	assert.NotNil(t, deps.Journal)
	assert.Nil(t, deps.Cache, "cache is disabled by default")
	assert.Nil(t, deps.Publisher, "events are disabled by default")
}

func TestContainer_JournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false
	c := newTestContainer(t, cfg)

	j, err := c.Journal()
	require.NoError(t, err)
	assert.Nil(t, j)

	deps, err := c.ServerDependencies(context.Background())
	require.NoError(t, err)
	assert.Nil(t, deps.Journal)
}

func TestContainer_CacheUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = "127.0.0.1:1"
	c := newTestContainer(t, cfg)

	_, err := c.ServerDependencies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog cache")
}

func TestContainer_ServerConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.APIKey = "secret"
	c := newTestContainer(t, cfg)

	sc := c.ServerConfig()
	assert.Equal(t, "127.0.0.1", sc.Bind)
	assert.Equal(t, 8080, sc.Port)
	assert.Equal(t, "secret", sc.APIKey)
	assert.Equal(t, "BARKER", sc.SiteName)
}

type stubFactory struct{}

func (stubFactory) CreateServerStarter() api.ServerStarter { return nil }

func TestContainer_ServerFactory(t *testing.T) {
	c := newTestContainer(t, testConfig(t))
	assert.IsType(t, &api.DefaultServerFactory{}, c.GetServerFactory())

	c.SetServerFactory(stubFactory{})
	assert.IsType(t, stubFactory{}, c.GetServerFactory())
}

func TestContainer_CloseReopens(t *testing.T) {
	c := newTestContainer(t, testConfig(t))

	first, err := c.Journal()
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NoError(t, c.Close())

	second, err := c.Journal()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
