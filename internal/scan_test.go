package kasactl

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

// startLoopbackDevice runs a minimal protocol responder on a loopback
// TCP port, answering every command with the given sysinfo tree.
func startLoopbackDevice(t *testing.T, si map[string]any) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				header := make([]byte, 4)
				if _, err := io.ReadFull(c, header); err != nil {
					return
				}
				body := make([]byte, binary.BigEndian.Uint32(header))
				if _, err := io.ReadFull(c, body); err != nil {
					return
				}
				reply, _ := json.Marshal(map[string]any{
					"system": map[string]any{"get_sysinfo": si},
				})
				c.Write(tplink.Encrypt(reply))
			}(conn)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestGenerateHosts(t *testing.T) {
	hosts := GenerateHosts("192.168.1", 1, 255)
	require.Len(t, hosts, 255)
	assert.Equal(t, "192.168.1.1", hosts[0])
	assert.Equal(t, "192.168.1.255", hosts[254])
}

func TestGenerateHostsInvertedRange(t *testing.T) {
	assert.Empty(t, GenerateHosts("192.168.1", 10, 2))
}

func TestScanSubnetEmptyRangeSkipsNetwork(t *testing.T) {
	start := time.Now()
	result := ScanSubnet(context.Background(), ScanParams{
		Subnet: "203.0.113", // TEST-NET-3, nothing to contact
		Begin:  10,
		End:    2,
	})
	require.NotNil(t, result)
	assert.Equal(t, "203.0.113", result.Subnet)
	assert.Empty(t, result.Devices)
	// an inverted range must return without probing anything
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestScanSubnetFindsLoopbackDevice(t *testing.T) {
	port := startLoopbackDevice(t, map[string]any{
		"alias":       "Desk Lamp",
		"relay_state": float64(1),
	})

	result := ScanSubnet(context.Background(), ScanParams{
		Subnet:      "127.0.0",
		Begin:       1,
		End:         2,
		Port:        port,
		Timeout:     500 * time.Millisecond,
		Concurrency: 2,
	})

	require.Len(t, result.Devices, 1)
	device := result.Devices[0]
	assert.Equal(t, "127.0.0.1", device.Addr)
	assert.Equal(t, "Desk Lamp", device.Name)
	assert.True(t, device.Responding)
	assert.Contains(t, device.Info, "system")
}

func TestScanSubnetDeviceWithoutAliasGetsGenericName(t *testing.T) {
	port := startLoopbackDevice(t, map[string]any{
		"relay_state": float64(0),
	})

	result := ScanSubnet(context.Background(), ScanParams{
		Subnet:      "127.0.0",
		Begin:       1,
		End:         1,
		Port:        port,
		Timeout:     500 * time.Millisecond,
		Concurrency: 1,
	})

	require.Len(t, result.Devices, 1)
	assert.Equal(t, "Device 127.0.0.1", result.Devices[0].Name)
}

func TestDetectLocalSubnetAlwaysReturnsPrefix(t *testing.T) {
	subnet := DetectLocalSubnet()
	assert.Regexp(t, regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}$`), subnet)
}
