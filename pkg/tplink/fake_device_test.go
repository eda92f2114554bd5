package tplink

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDevice is a loopback TCP listener speaking the length-prefixed
// autokey framing. Every decoded command is recorded and answered by
// the handler, which returns the response tree to encrypt back.
type fakeDevice struct {
	addr    string
	port    int
	handler func(cmd map[string]any) any

	mu       sync.Mutex
	commands []map[string]any
}

func startFakeDevice(t *testing.T, handler func(cmd map[string]any) any) *fakeDevice {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	fd := &fakeDevice{
		addr:    "127.0.0.1",
		port:    ln.Addr().(*net.TCPAddr).Port,
		handler: handler,
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go fd.serve(conn)
		}
	}()
	return fd
}

func (fd *fakeDevice) serve(conn net.Conn) {
	defer conn.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return
	}
	body := make([]byte, binary.BigEndian.Uint32(header))
	if _, err := io.ReadFull(conn, body); err != nil {
		return
	}

	var cmd map[string]any
	if err := json.Unmarshal(decipher(body), &cmd); err != nil {
		return
	}
	fd.mu.Lock()
	fd.commands = append(fd.commands, cmd)
	fd.mu.Unlock()

	response, err := json.Marshal(fd.handler(cmd))
	if err != nil {
		return
	}
	conn.Write(Encrypt(response))
}

// lastCommand returns the most recently received command tree.
func (fd *fakeDevice) lastCommand(t *testing.T) map[string]any {
	t.Helper()
	fd.mu.Lock()
	defer fd.mu.Unlock()
	require.NotEmpty(t, fd.commands)
	return fd.commands[len(fd.commands)-1]
}

func (fd *fakeDevice) device() *Device {
	d := NewDevice(fd.addr)
	d.Port = fd.port
	return d
}

// sysinfoReply wraps a sysinfo tree the way real devices do.
func sysinfoReply(si map[string]any) map[string]any {
	return map[string]any{"system": map[string]any{"get_sysinfo": si}}
}

// okReply is the generic set_* acknowledgement.
func okReply(module, action string) map[string]any {
	return map[string]any{module: map[string]any{action: map[string]any{"err_code": 0}}}
}
