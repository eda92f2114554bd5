package tplink

import "encoding/json"

// Command is the two-level {module: {action: params}} tree the devices
// accept, e.g. {"system":{"get_sysinfo":{}}}.
type Command map[string]any

// NewCommand builds a single module/action command. A nil params map
// serializes as the empty object the protocol expects.
func NewCommand(module, action string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{module: map[string]any{action: params}}
}

// ForChildren annotates the command with the context wrapper that
// targets specific outlets of a power strip. The wrapper is additive:
// the original module keys stay in place and a sibling "context" key is
// added. With no ids the command is returned unchanged.
func (c Command) ForChildren(ids ...string) Command {
	if len(ids) == 0 {
		return c
	}
	wrapped := Command{"context": map[string]any{"child_ids": ids}}
	for k, v := range c {
		if k == "context" {
			continue
		}
		wrapped[k] = v
	}
	return wrapped
}

// Marshal serializes the command to the compact JSON text that gets
// encrypted onto the wire.
func (c Command) Marshal() ([]byte, *Error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, wrapError(KindProtocol, err, "failed to marshal command")
	}
	return b, nil
}

// SysinfoProbe returns the encrypted get_sysinfo payload used both for
// direct info queries and as the discovery probe.
func SysinfoProbe() []byte {
	return Encrypt([]byte(`{"system":{"get_sysinfo":{}}}`))
}
