package tplink

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultPort is the TCP/UDP port the legacy protocol listens on.
	DefaultPort = 9999

	// DefaultTimeout bounds a whole command exchange when the caller
	// does not supply its own.
	DefaultTimeout = 5 * time.Second
)

// SendCommand performs one unary exchange with a device: connect, write
// the encrypted command, read the length-prefixed reply, decrypt, and
// parse it as JSON. The connection is opened and closed per call; there
// is no pooling. A zero timeout uses DefaultTimeout.
func SendCommand(addr string, port int, timeout time.Duration, cmd Command) (map[string]any, *Error) {
	body, err := exchange(addr, port, timeout, cmd, true)
	if err != nil {
		return nil, err
	}

	var response map[string]any
	if jsonErr := json.Unmarshal(body, &response); jsonErr != nil {
		return nil, wrapError(KindProtocol, jsonErr, "response from %s is not valid JSON", addr)
	}
	return response, nil
}

// SendCommandNoReply writes a command and returns once the write has
// completed, without requiring a readable reply. Used for reboot, where
// the device drops the connection before answering.
func SendCommandNoReply(addr string, port int, timeout time.Duration, cmd Command) *Error {
	_, err := exchange(addr, port, timeout, cmd, false)
	return err
}

func exchange(addr string, port int, timeout time.Duration, cmd Command, wantReply bool) ([]byte, *Error) {
	if port <= 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	plaintext, err := cmd.Marshal()
	if err != nil {
		return nil, err
	}

	target := net.JoinHostPort(addr, fmt.Sprint(port))
	conn, dialErr := net.DialTimeout("tcp", target, timeout)
	if dialErr != nil {
		return nil, wrapError(KindConnect, dialErr, "failed to connect to %s", target)
	}
	defer conn.Close()

	// Failures past this point happened on an established connection,
	// so they are exchange failures rather than connect failures.
	deadline := time.Now().Add(timeout)
	if dlErr := conn.SetDeadline(deadline); dlErr != nil {
		return nil, wrapError(KindProtocol, dlErr, "failed to set deadline on %s", target)
	}

	log.Debug().Str("target", target).RawJSON("command", plaintext).Msg("sending command")
	if _, writeErr := conn.Write(Encrypt(plaintext)); writeErr != nil {
		return nil, wrapError(KindProtocol, writeErr, "failed to send command to %s", target)
	}
	if !wantReply {
		return nil, nil
	}
	return readFrame(conn, target)
}

// readFrame reads one length-prefixed frame off conn and returns the
// deciphered body. A single Read is not guaranteed to return the whole
// payload, so both the header and the body use io.ReadFull.
func readFrame(conn net.Conn, target string) ([]byte, *Error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, wrapError(KindProtocol, err, "failed to read response header from %s", target)
	}

	bodyLen := binary.BigEndian.Uint32(header)
	if bodyLen > maxFrameLen {
		return nil, newError(KindProtocol, "response from %s claims %d bytes, refusing to read", target, bodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, wrapError(KindProtocol, err, "short response body from %s: want %d bytes", target, bodyLen)
	}
	return decipher(body), nil
}

// maxFrameLen rejects absurd length headers before allocating. Real
// sysinfo responses for an HS300 top out around 4 KiB.
const maxFrameLen = 1 << 20
