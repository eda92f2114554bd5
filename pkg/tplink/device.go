package tplink

import (
	"fmt"
	"time"
)

// Device addresses one physical unit, or one outlet of a power strip
// when ChildID is set. It holds no connection; every operation runs a
// fresh transport exchange.
type Device struct {
	Addr    string
	Port    int
	ChildID string
	Timeout time.Duration
}

// NewDevice returns a device handle with the default port and timeout.
func NewDevice(addr string) *Device {
	return &Device{Addr: addr, Port: DefaultPort, Timeout: DefaultTimeout}
}

// Outlet is one strip outlet as reported by a state query.
type Outlet struct {
	ID         string `json:"id"`
	Alias      string `json:"alias"`
	State      string `json:"state"`
	RelayState int    `json:"relay_state"`
}

// ChildOutlet is one strip outlet as reported by GetChildren, with its
// position in the response order.
type ChildOutlet struct {
	ID         string `json:"id"`
	Index      int    `json:"index"`
	Alias      string `json:"alias"`
	State      string `json:"state"`
	RelayState int    `json:"relay_state"`
}

// State is the result of GetState. For a single outlet or a specific
// strip child, State/RelayState (and outlet identity for children) are
// set. For a whole strip without a child id, IsStrip and Outlets carry
// the per-outlet breakdown instead.
type State struct {
	State       string   `json:"state,omitempty"`
	RelayState  *int     `json:"relay_state,omitempty"`
	OutletID    string   `json:"outlet_id,omitempty"`
	OutletAlias string   `json:"outlet_alias,omitempty"`
	IsStrip     bool     `json:"is_strip,omitempty"`
	OutletCount int      `json:"outlet_count,omitempty"`
	Outlets     []Outlet `json:"outlets,omitempty"`
	Model       string   `json:"model,omitempty"`
	Alias       string   `json:"alias,omitempty"`
}

// Children is the result of GetChildren. Single-outlet devices report
// IsStrip false and an empty list.
type Children struct {
	IsStrip  bool          `json:"is_strip"`
	Model    string        `json:"model,omitempty"`
	Alias    string        `json:"alias,omitempty"`
	ChildNum int           `json:"child_num,omitempty"`
	Children []ChildOutlet `json:"children"`
}

// wrap applies the child context when this handle targets one outlet.
func (d *Device) wrap(cmd Command) Command {
	if d.ChildID == "" {
		return cmd
	}
	return cmd.ForChildren(d.ChildID)
}

func (d *Device) send(cmd Command) (map[string]any, *Error) {
	return SendCommand(d.Addr, d.Port, d.Timeout, cmd)
}

// TurnOn switches the device (or the addressed outlet) on. Turning on
// an already-on relay is a no-op at the device.
func (d *Device) TurnOn() (map[string]any, *Error) {
	return d.send(d.wrap(NewCommand("system", "set_relay_state", map[string]any{"state": 1})))
}

// TurnOff switches the device (or the addressed outlet) off.
func (d *Device) TurnOff() (map[string]any, *Error) {
	return d.send(d.wrap(NewCommand("system", "set_relay_state", map[string]any{"state": 0})))
}

// GetInfo returns the raw decoded get_sysinfo response.
func (d *Device) GetInfo() (map[string]any, *Error) {
	return d.send(NewCommand("system", "get_sysinfo", nil))
}

// GetState reports the relay state of the handle's target. See State
// for the three shapes it can take.
func (d *Device) GetState() (*State, *Error) {
	info, err := d.GetInfo()
	if err != nil {
		return nil, err
	}

	si, err := sysinfo(info)
	if err != nil {
		return nil, err
	}

	children, isStrip := childList(si)
	if !isStrip {
		relay, ok := intField(si, "relay_state")
		if !ok {
			return nil, newError(KindParse, "response has no relay_state field")
		}
		return &State{State: stateWord(relay), RelayState: &relay}, nil
	}

	if d.ChildID != "" {
		for _, child := range children {
			if strField(child, "id") != d.ChildID {
				continue
			}
			relay, _ := intField(child, "state")
			return &State{
				State:       stateWord(relay),
				RelayState:  &relay,
				OutletID:    d.ChildID,
				OutletAlias: strField(child, "alias"),
			}, nil
		}
		return nil, newError(KindNotFound, "child id %q not found on device %s", d.ChildID, d.Addr)
	}

	state := &State{
		IsStrip:     true,
		OutletCount: len(children),
		Model:       strField(si, "model"),
		Alias:       strField(si, "alias"),
	}
	for i, child := range children {
		relay, _ := intField(child, "state")
		alias := strField(child, "alias")
		if alias == "" {
			alias = fmt.Sprintf("Outlet %d", i+1)
		}
		state.Outlets = append(state.Outlets, Outlet{
			ID:         strField(child, "id"),
			Alias:      alias,
			State:      stateWord(relay),
			RelayState: relay,
		})
	}
	return state, nil
}

// Toggle flips the relay based on its current state and returns the
// set_relay_state response.
func (d *Device) Toggle() (map[string]any, *Error) {
	current, err := d.GetState()
	if err != nil {
		return nil, err
	}
	if current.RelayState != nil && *current.RelayState == 1 {
		return d.TurnOff()
	}
	return d.TurnOn()
}

// GetChildren lists the outlets of a power strip in response order.
func (d *Device) GetChildren() (*Children, *Error) {
	info, err := d.GetInfo()
	if err != nil {
		return nil, err
	}

	si, err := sysinfo(info)
	if err != nil {
		return nil, err
	}

	children, isStrip := childList(si)
	if !isStrip {
		return &Children{IsStrip: false, Children: []ChildOutlet{}}, nil
	}

	result := &Children{
		IsStrip: true,
		Model:   strField(si, "model"),
		Alias:   strField(si, "alias"),
	}
	for i, child := range children {
		relay, _ := intField(child, "state")
		alias := strField(child, "alias")
		if alias == "" {
			alias = fmt.Sprintf("Outlet %d", i+1)
		}
		result.Children = append(result.Children, ChildOutlet{
			ID:         strField(child, "id"),
			Index:      i,
			Alias:      alias,
			State:      stateWord(relay),
			RelayState: relay,
		})
	}
	result.ChildNum = len(result.Children)
	if n, ok := intField(si, "child_num"); ok {
		result.ChildNum = n
	}
	return result, nil
}

// SetLED turns the status LED (nightlight) on or off. The wire field
// is set_led_off with inverted polarity, which this method hides:
// SetLED(true) sends off=0.
func (d *Device) SetLED(on bool) (map[string]any, *Error) {
	off := 1
	if on {
		off = 0
	}
	return d.send(NewCommand("system", "set_led_off", map[string]any{"off": off}))
}

// Reboot asks the device to restart after delaySeconds. The request is
// fire-and-forget: the device drops the connection on reboot, so no
// reply is read.
func (d *Device) Reboot(delaySeconds int) *Error {
	if delaySeconds <= 0 {
		delaySeconds = 1
	}
	return SendCommandNoReply(d.Addr, d.Port, d.Timeout,
		NewCommand("system", "reboot", map[string]any{"delay": delaySeconds}))
}

// EnergyMeter reads realtime power data from metering models (HS110,
// KP115). Non-metering devices answer with their own error payload; it
// is returned verbatim together with an unsupported error.
func (d *Device) EnergyMeter() (map[string]any, *Error) {
	resp, err := d.send(NewCommand("emeter", "get_realtime", nil))
	if err != nil {
		return nil, err
	}
	if realtime, ok := nested(resp, "emeter", "get_realtime"); ok {
		if code, codeOk := intField(realtime, "err_code"); codeOk && code != 0 {
			return resp, newError(KindUnsupported, "device does not support energy metering: %s", strField(realtime, "err_msg"))
		}
	}
	return resp, nil
}

// CloudInfo returns the device's cloud connectivity report.
func (d *Device) CloudInfo() (map[string]any, *Error) {
	return d.send(NewCommand("cnCloud", "get_info", nil))
}

// WiFiScan asks the device to scan for nearby access points.
func (d *Device) WiFiScan() (map[string]any, *Error) {
	return d.send(NewCommand("netif", "get_scaninfo", map[string]any{"refresh": 1}))
}

// sysinfo unwraps system.get_sysinfo from a raw response.
func sysinfo(resp map[string]any) (map[string]any, *Error) {
	si, ok := nested(resp, "system", "get_sysinfo")
	if !ok {
		return nil, newError(KindParse, "response has no system.get_sysinfo tree")
	}
	return si, nil
}

// childList extracts the children sequence that marks a power strip.
func childList(si map[string]any) ([]map[string]any, bool) {
	raw, ok := si["children"].([]any)
	if !ok {
		return nil, false
	}
	children := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			children = append(children, m)
		}
	}
	return children, true
}

func nested(m map[string]any, keys ...string) (map[string]any, bool) {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// intField reads a numeric field, tolerating the float64 that
// encoding/json produces for all JSON numbers.
func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stateWord(relay int) string {
	if relay == 1 {
		return "on"
	}
	return "off"
}
