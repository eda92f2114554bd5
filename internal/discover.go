package kasactl

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

// DefaultBroadcastAddresses is the fixed set of probe targets: the
// global broadcast plus directed broadcasts for the common private
// ranges. Devices on oddball subnets are what the subnet scan is for.
var DefaultBroadcastAddresses = []string{
	"255.255.255.255", // global broadcast
	"192.168.1.255",   // common home router default
	"192.168.0.255",   // another common default
	"192.168.255.255", // /16 for 192.168.x.x
	"10.0.255.255",    // /16 for 10.0.x.x
	"10.255.255.255",  // /8 for 10.x.x.x
	"172.16.255.255",  // /12 for 172.16-31.x.x
	"100.64.255.255",  // CGNAT range
}

const (
	// DefaultDiscoverTimeout is the overall collection window.
	DefaultDiscoverTimeout = 10 * time.Second

	// discoverRounds and discoverSpacing control probe repetition;
	// UDP broadcast is lossy, so the probe goes out several times.
	discoverRounds  = 5
	discoverSpacing = 200 * time.Millisecond

	// receiveTimeout bounds each individual wait so the listen loop
	// can re-check the overall deadline.
	receiveTimeout = time.Second

	// minResponseLen filters echoes of our own ~33-byte probe; real
	// sysinfo replies run well past 200 bytes.
	minResponseLen = 50
)

// DiscoverParams configures a broadcast discovery run. Zero values use
// the package defaults; Addresses and Rounds exist mainly so tests can
// point discovery at a loopback responder.
type DiscoverParams struct {
	Timeout   time.Duration
	Port      int
	Addresses []string
	Rounds    int
}

// DiscoverBroadcast sends the encrypted get_sysinfo probe to the
// broadcast address list and collects responding source addresses
// until the timeout elapses. The result is deduplicated and sorted; an
// empty list means nothing answered, not failure. Individual send
// errors are ignored since several of the target subnets are usually
// unreachable.
func DiscoverBroadcast(ctx context.Context, params DiscoverParams) ([]string, error) {
	if params.Timeout <= 0 {
		params.Timeout = DefaultDiscoverTimeout
	}
	if params.Port <= 0 {
		params.Port = tplink.DefaultPort
	}
	if len(params.Addresses) == 0 {
		params.Addresses = DefaultBroadcastAddresses
	}
	if params.Rounds <= 0 {
		params.Rounds = discoverRounds
	}

	conn, err := listenBroadcast(params.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery socket: %w", err)
	}
	defer conn.Close()

	probe := tplink.SysinfoProbe()
	for round := 0; round < params.Rounds; round++ {
		for _, addr := range params.Addresses {
			target := &net.UDPAddr{IP: net.ParseIP(addr), Port: params.Port}
			if _, err := conn.WriteTo(probe, target); err != nil {
				log.Debug().Err(err).Str("addr", addr).Msg("broadcast send failed")
			}
		}
		select {
		case <-time.After(discoverSpacing):
		case <-ctx.Done():
			return []string{}, nil
		}
	}

	var (
		found    = map[string]struct{}{}
		deadline = time.Now().Add(params.Timeout)
		buf      = make([]byte, 4096)
	)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		if err := conn.SetReadDeadline(time.Now().Add(receiveTimeout)); err != nil {
			break
		}
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			// unexpected socket error, return what we have
			log.Debug().Err(err).Msg("discovery receive failed")
			break
		}
		if n <= minResponseLen {
			continue
		}
		if udpAddr, ok := src.(*net.UDPAddr); ok {
			found[udpAddr.IP.String()] = struct{}{}
		}
	}

	devices := maps.Keys(found)
	slices.Sort(devices)
	return devices, nil
}

// listenBroadcast opens the discovery socket with SO_BROADCAST and
// SO_REUSEADDR set. It prefers the device port so replies addressed
// there land on us, falling back to an ephemeral port when it is
// already taken.
func listenBroadcast(port int) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			ctlErr := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
					sockErr = err
					return
				}
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if ctlErr != nil {
				return ctlErr
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err == nil {
		return conn, nil
	}
	log.Debug().Err(err).Int("port", port).Msg("device port taken, binding ephemeral port")
	return lc.ListenPacket(context.Background(), "udp4", ":0")
}
