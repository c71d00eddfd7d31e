package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/config"
	"github.com/ssargent/vifgate/pkg/di"
	"github.com/ssargent/vifgate/pkg/gateway"
)

// startHost runs a loopback venue host answering every request with
// reply, and points a fresh container at it.
func startHost(t *testing.T, reply func(req *codec.Message) string) *config.Config {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				text, err := bufio.NewReader(conn).ReadString(codec.Terminator)
				if err != nil {
					return
				}
				req, err := codec.ParseMessage(strings.TrimSuffix(text, string(codec.Terminator)))
				if err != nil {
					return
				}
				_, _ = io.WriteString(conn, reply(req)+string(codec.Terminator))
			}(conn)
		}
	}()

	cfg := config.DefaultConfig()
	cfg.Gateway.Host = "127.0.0.1"
	cfg.Gateway.Port = ln.Addr().(*net.TCPAddr).Port
	cfg.Gateway.Timeout = 2 * time.Second
	cfg.Gateway.SiteName = "BARKER"
	cfg.Journal.Dir = t.TempDir()

	useContainer(t, cfg)
	return cfg
}

func useContainer(t *testing.T, cfg *config.Config) {
	t.Helper()
	c := di.NewContainer(cfg, nil)
	c.SetRegisterer(prometheus.NewRegistry())
	SetContainer(c)
	t.Cleanup(func() {
		_ = c.Close()
		SetContainer(nil)
	})
}

// testCommand is a bare command carrying the output flags callVenue reads.
func testCommand(raw bool) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.Flags().Bool("raw", raw, "")
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func reply(body string) func(*codec.Message) string {
	return func(req *codec.Message) string {
		resp := "{vrp}{1}BARKER{2}" + req.PacketID() + "{3}1{4}0"
		if body != "" {
			resp += "!" + body
		}
		return resp
	}
}

func TestCallVenue_PrintsJSON(t *testing.T) {
	startHost(t, reply("{ssn}{1}1042"))
	cmd, out := testCommand(false)

	err := callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
		return gw.GetData(ctx, gateway.DetailWeb)
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"site_name": "BARKER"`)
	assert.Contains(t, out.String(), `"session_number": 1042`)
}

func TestCallVenue_Raw(t *testing.T) {
	startHost(t, reply(""))
	cmd, out := testCommand(true)

	err := callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
		return gw.Handshake(ctx)
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "{vrp}{1}BARKER{2}"))
}

func TestCallVenue_HostErrorPrintsResponse(t *testing.T) {
	startHost(t, func(req *codec.Message) string {
		return "{vrp}{1}BARKER{2}" + req.PacketID() + "{3}32{4}27{5}Booking not found"
	})
	cmd, out := testCommand(false)

	err := callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
		return gw.LookupBooking(ctx, 50321, false)
	})

	var hostErr *gateway.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, 27, hostErr.Number)
	assert.Contains(t, out.String(), "Booking not found")
}

func TestCallVenue_ConnectionErrorPrintsNothing(t *testing.T) {
	cfg := startHost(t, reply(""))
	cfg.Gateway.Port = 1 // nothing listens there
	useContainer(t, cfg)
	cmd, out := testCommand(false)

	err := callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
		return gw.Handshake(ctx)
	})

	var connErr *gateway.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Empty(t, out.String())
}

func TestCallVenue_InvalidConfig(t *testing.T) {
	useContainer(t, config.DefaultConfig())
	cmd, _ := testCommand(false)

	err := callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
		t.Fatal("venue must not be called")
		return nil, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.host is required")
}

func TestJournal_RecordsCLIExchanges(t *testing.T) {
	startHost(t, reply(""))
	cmd, _ := testCommand(false)

	for i := 0; i < 2; i++ {
		require.NoError(t, callVenue(cmd, func(ctx context.Context, gw *gateway.Gateway) (*codec.Message, error) {
			return gw.Handshake(ctx)
		}))
	}

	j, err := openJournal()
	require.NoError(t, err)
	entries, err := j.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var out bytes.Buffer
	require.NoError(t, writeEntries(&out, entries))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], entries[0].ID)
	assert.Contains(t, lines[1], entries[0].PacketID)
}

func TestOpenJournal_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Journal.Enabled = false
	useContainer(t, cfg)

	_, err := openJournal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
