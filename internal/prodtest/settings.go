package prodtest

import (
	"encoding/json"
	"maps"
)

// Reflash controls whether the device is reflashed before a run.
type Reflash struct {
	Enable bool   `json:"enable"`
	File   string `json:"file,omitempty"`
}

// Settings is the backend's per-device settings object. Only voltages and
// reflash are interpreted; every other key is carried through untouched.
type Settings struct {
	// Voltages maps backend key names (vdd, vled, ...) to values. Nil when the
	// device schema has no voltages.
	Voltages map[string]json.RawMessage
	Reflash  *Reflash
	Extra    map[string]json.RawMessage
}

// HasVoltage reports whether the backend schema defines key.
func (s Settings) HasVoltage(key string) bool {
	if s.Voltages == nil {
		return false
	}
	_, ok := s.Voltages[key]
	return ok
}

// Voltage returns the value stored under key as a string, whether the backend
// sent it as a number or a string.
func (s Settings) Voltage(key string) (string, bool) {
	raw, ok := s.Voltages[key]
	if !ok {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, true
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), true
	}
	return string(raw), true
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{
		Voltages: maps.Clone(s.Voltages),
		Extra:    maps.Clone(s.Extra),
	}
	if s.Reflash != nil {
		r := *s.Reflash
		out.Reflash = &r
	}
	return out
}

// UnmarshalJSON keeps unknown keys in Extra.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settings{}
	if v, ok := raw["voltages"]; ok {
		if err := json.Unmarshal(v, &s.Voltages); err != nil {
			return err
		}
		if s.Voltages == nil {
			s.Voltages = map[string]json.RawMessage{}
		}
		delete(raw, "voltages")
	}
	if v, ok := raw["reflash"]; ok {
		var r Reflash
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		s.Reflash = &r
		delete(raw, "reflash")
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// MarshalJSON writes Extra back alongside voltages and reflash.
func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Voltages != nil {
		out["voltages"] = s.Voltages
	}
	if s.Reflash != nil {
		out["reflash"] = s.Reflash
	}
	return json.Marshal(out)
}
