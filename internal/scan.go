// Package kasactl implements the core routines for the tool. The files
// in this package back the CLI subcommands in cmd/:
//
//	cmd/scan.go     --> internal/scan.go     ( kasactl.ScanSubnet() )
//	cmd/discover.go --> internal/discover.go ( kasactl.DiscoverBroadcast() )
//
// Direct device commands (on, off, state, ...) go straight to the
// pkg/tplink device model and have no internal counterpart.
package kasactl

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

const (
	// DefaultSubnet is the prefix assumed when local subnet detection
	// fails. Callers depend on a non-empty subnet always coming back,
	// so detection failures fall through to this rather than erroring.
	DefaultSubnet = "192.168.1"

	// DefaultScanConcurrency bounds parallel probe attempts so a full
	// /24 sweep does not exhaust file descriptors.
	DefaultScanConcurrency = 50

	// DefaultProbeTimeout bounds each individual connect-and-query
	// attempt during a scan.
	DefaultProbeTimeout = 500 * time.Millisecond

	// subnetDetectTarget is only ever "connected" to via UDP to read
	// back the local outbound address; no packet is sent.
	subnetDetectTarget = "8.8.8.8:80"
)

// DiscoveredDevice is one responding host found by a subnet scan.
type DiscoveredDevice struct {
	Addr       string         `json:"ip"`
	Name       string         `json:"name"`
	Responding bool           `json:"responding"`
	Info       map[string]any `json:"info,omitempty"`
}

// ScanParams configures a subnet scan. Zero values fall back to the
// package defaults.
type ScanParams struct {
	Subnet      string        // three-octet prefix, e.g. "192.168.1"
	Begin       int           // first host suffix (default 1)
	End         int           // last host suffix, inclusive (default 255)
	Port        int           // device port (default 9999)
	Timeout     time.Duration // per-attempt timeout
	Concurrency int           // worker pool size
}

// ScanResult is the aggregate of one subnet scan.
type ScanResult struct {
	Subnet  string             `json:"subnet"`
	Devices []DiscoveredDevice `json:"devices"`
}

// ScanSubnet sweeps a host suffix range with concurrent TCP probes and
// returns every host that answered a get_sysinfo query. Hosts that
// refuse the connection or fail the exchange are excluded silently;
// absence of a device is the expected case for most addresses. The
// context stops new probes from launching; probes already in flight
// finish within their own timeout.
func ScanSubnet(ctx context.Context, params ScanParams) *ScanResult {
	if params.Subnet == "" {
		params.Subnet = DetectLocalSubnet()
	}
	if params.Begin <= 0 {
		params.Begin = 1
	}
	if params.End <= 0 {
		params.End = 255
	}
	if params.Port <= 0 {
		params.Port = tplink.DefaultPort
	}
	if params.Timeout <= 0 {
		params.Timeout = DefaultProbeTimeout
	}
	if params.Concurrency <= 0 {
		params.Concurrency = DefaultScanConcurrency
	}

	result := &ScanResult{
		Subnet:  params.Subnet,
		Devices: []DiscoveredDevice{},
	}
	hosts := GenerateHosts(params.Subnet, params.Begin, params.End)
	if len(hosts) == 0 {
		return result
	}

	log.Debug().
		Str("subnet", params.Subnet).
		Int("hosts", len(hosts)).
		Int("concurrency", params.Concurrency).
		Msg("starting subnet scan")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		hostChan = make(chan string, params.Concurrency)
	)
	wg.Add(params.Concurrency)
	for i := 0; i < params.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for host := range hostChan {
				device := probeHost(host, params.Port, params.Timeout)
				if device == nil {
					continue
				}
				mu.Lock()
				result.Devices = append(result.Devices, *device)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, host := range hosts {
		select {
		case hostChan <- host:
		case <-ctx.Done():
			break feed
		}
	}
	close(hostChan)
	wg.Wait()

	log.Debug().Int("found", len(result.Devices)).Msg("subnet scan finished")
	return result
}

// probeHost runs one get_sysinfo exchange against a host. A nil return
// means the host is not a responding device.
func probeHost(addr string, port int, timeout time.Duration) *DiscoveredDevice {
	info, err := tplink.SendCommand(addr, port, timeout, tplink.NewCommand("system", "get_sysinfo", nil))
	if err != nil {
		return nil
	}

	device := &DiscoveredDevice{
		Addr:       addr,
		Name:       fmt.Sprintf("Device %s", addr),
		Responding: true,
		Info:       info,
	}
	if alias, ok := sysinfoAlias(info); ok {
		device.Name = alias
	}
	return device
}

func sysinfoAlias(info map[string]any) (string, bool) {
	system, ok := info["system"].(map[string]any)
	if !ok {
		return "", false
	}
	si, ok := system["get_sysinfo"].(map[string]any)
	if !ok {
		return "", false
	}
	alias, ok := si["alias"].(string)
	return alias, ok && alias != ""
}

// GenerateHosts expands a three-octet subnet prefix into addresses for
// every suffix in [begin, end]. An inverted range yields no hosts.
func GenerateHosts(subnet string, begin, end int) []string {
	hosts := []string{}
	for i := begin; i <= end && i <= 255; i++ {
		hosts = append(hosts, fmt.Sprintf("%s.%d", subnet, i))
	}
	return hosts
}

// DetectLocalSubnet derives the local /24 prefix by opening a UDP
// socket "connected" to an external address and reading back the
// chosen source IP. Nothing is transmitted. Any failure falls back to
// DefaultSubnet.
func DetectLocalSubnet() string {
	conn, err := net.Dial("udp4", subnetDetectTarget)
	if err != nil {
		log.Debug().Err(err).Msg("local subnet detection failed, using default")
		return DefaultSubnet
	}
	defer conn.Close()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return DefaultSubnet
	}
	ip := udpAddr.IP.To4()
	if ip == nil {
		return DefaultSubnet
	}
	return fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2])
}
