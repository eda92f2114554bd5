package kasactl

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startUDPResponder answers every inbound datagram by sending each of
// the reply payloads back to the source address.
func startUDPResponder(t *testing.T, replies [][]byte) int {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 4096)
		for {
			_, src, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			for _, reply := range replies {
				conn.WriteTo(reply, src)
			}
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestDiscoverBroadcastDeduplicatesRepeatedReplies(t *testing.T) {
	// a realistic sysinfo reply is a few hundred bytes; three copies of
	// one must still produce a single discovered address
	reply := bytes.Repeat([]byte("x"), 300)
	port := startUDPResponder(t, [][]byte{reply, reply, reply})

	devices, err := DiscoverBroadcast(context.Background(), DiscoverParams{
		Timeout:   1500 * time.Millisecond,
		Port:      port,
		Addresses: []string{"127.0.0.1"},
		Rounds:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1"}, devices)
}

func TestDiscoverBroadcastFiltersShortDatagrams(t *testing.T) {
	// anything at or under the probe-echo threshold is not a device
	port := startUDPResponder(t, [][]byte{bytes.Repeat([]byte("x"), 40)})

	devices, err := DiscoverBroadcast(context.Background(), DiscoverParams{
		Timeout:   1200 * time.Millisecond,
		Port:      port,
		Addresses: []string{"127.0.0.1"},
		Rounds:    1,
	})
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestDiscoverBroadcastNothingFoundIsNotAnError(t *testing.T) {
	// a port nobody answers on
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()

	devices, discoverErr := DiscoverBroadcast(context.Background(), DiscoverParams{
		Timeout:   1100 * time.Millisecond,
		Port:      port,
		Addresses: []string{"127.0.0.1"},
		Rounds:    1,
	})
	require.NoError(t, discoverErr)
	assert.Empty(t, devices)
}

func TestDiscoverBroadcastHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	devices, err := DiscoverBroadcast(ctx, DiscoverParams{
		Timeout:   10 * time.Second,
		Addresses: []string{"127.0.0.1"},
		Rounds:    1,
	})
	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.Less(t, time.Since(start), 2*time.Second)
}
