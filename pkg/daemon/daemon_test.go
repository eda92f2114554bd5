package daemon

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

// startLoopbackDevice answers every protocol command with the given
// sysinfo tree.
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

func testServer(t *testing.T, devicePort int) *httptest.Server {
	t.Helper()
	s := &Server{DevicePort: devicePort, Timeout: time.Second}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestDeviceStateEndpoint(t *testing.T) {
	port := startLoopbackDevice(t, map[string]any{
		"alias":       "Desk Lamp",
		"relay_state": float64(1),
	})
	ts := testServer(t, port)

	resp, err := http.Get(ts.URL + "/devices/127.0.0.1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "on", state["state"])
	assert.Equal(t, float64(1), state["relay_state"])
}

func TestUnknownChildReturns404(t *testing.T) {
	port := startLoopbackDevice(t, map[string]any{
		"children": []any{
			map[string]any{"id": "A", "state": float64(1), "alias": "Lamp"},
		},
	})
	ts := testServer(t, port)

	resp, err := http.Get(ts.URL + "/devices/127.0.0.1/state?child=Z")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_found", errObj["kind"])
}

func TestUnreachableDeviceReturns502(t *testing.T) {
	// nothing listens on this port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	ts := testServer(t, port)
	resp, httpErr := http.Get(ts.URL + "/devices/127.0.0.1/info")
	require.NoError(t, httpErr)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLEDRequiresExplicitState(t *testing.T) {
	ts := testServer(t, 9999)

	resp, err := http.Post(ts.URL+"/devices/127.0.0.1/led", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScanEndpointValidatesRange(t *testing.T) {
	ts := testServer(t, 9999)

	resp, err := http.Get(fmt.Sprintf("%s/scan?begin=abc", ts.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
