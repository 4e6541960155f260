// Package settings validates and stages the voltage and reflash settings
// edited on the Config page.
package settings

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zjrosen/prodtests/internal/prodtest"
)

// MaxVoltage is the largest accepted millivolt value.
const MaxVoltage = 4000

// Field is one editable voltage rail.
type Field struct {
	Label   string // shown to the operator
	Key     string // backend settings key
	Default string
}

// Fields lists the rails in display order.
var Fields = []Field{
	{Label: "VDDL", Key: "vdd", Default: "1800"},
	{Label: "VDDH", Key: "vled", Default: "3300"},
	{Label: "VDD12", Key: "vddtx", Default: "1200"},
	{Label: "VBUS", Key: "vpu", Default: "1800"},
}

// ValidateVoltage returns the value a field should hold after the operator
// typed input while it held prev. Input that is not a plain decimal number
// (digits with at most one point) or exceeds MaxVoltage is rejected by
// returning prev. Leading zeros are stripped.
func ValidateVoltage(prev, input string) string {
	if input == "" {
		return "0"
	}
	if strings.Count(input, ".") > 1 || strings.Trim(input, "0123456789.") != "" {
		return prev
	}
	n, err := strconv.ParseFloat(input, 64)
	if err != nil || n > MaxVoltage {
		return prev
	}
	trimmed := strings.TrimLeft(input, "0")
	switch {
	case trimmed == "":
		return "0"
	case trimmed[0] == '.':
		return "0" + trimmed
	}
	return trimmed
}

// Form is the working copy of the Config page.
type Form struct {
	Voltages      map[string]string // keyed by Field.Label
	ReflashEnable bool
	ReflashFile   string
	// ImageError is set when the reflash image could not be staged.
	ImageError bool
}

// NewForm seeds a form from s. Voltages the backend does not define fall
// back to the rail defaults.
func NewForm(s prodtest.Settings) *Form {
	f := &Form{Voltages: make(map[string]string, len(Fields))}
	for _, field := range Fields {
		f.Voltages[field.Label] = field.Default
		if v, ok := s.Voltage(field.Key); ok {
			f.Voltages[field.Label] = v
		}
	}
	if s.Reflash != nil {
		f.ReflashEnable = s.Reflash.Enable
		f.ReflashFile = s.Reflash.File
	}
	return f
}

// SetVoltage applies a keystroke result to label and returns the stored value.
func (f *Form) SetVoltage(label, input string) string {
	v := ValidateVoltage(f.Voltages[label], input)
	f.Voltages[label] = v
	return v
}

// ReflashValid reports whether the reflash constraint holds.
func (f *Form) ReflashValid() bool {
	return !f.ReflashEnable || strings.TrimSpace(f.ReflashFile) != ""
}

// CanSubmit reports whether Done is enabled.
func (f *Form) CanSubmit() bool {
	for _, field := range Fields {
		if f.Voltages[field.Label] == "" {
			return false
		}
	}
	return f.ReflashValid() && !f.ImageError
}

// encodeLike encodes n as a JSON string when prev was a string and as a
// number otherwise, so the backend sees the type it wrote.
func encodeLike(prev json.RawMessage, n float64) json.RawMessage {
	v := strconv.FormatFloat(n, 'f', -1, 64)
	if len(prev) > 0 && prev[0] == '"' {
		return json.RawMessage(strconv.Quote(v))
	}
	return json.RawMessage(v)
}

// Stage writes the form into a copy of s. Voltages are written only when the
// backend schema already carries them; reflash is always written and the file
// is kept only when reflash is enabled.
func (f *Form) Stage(s prodtest.Settings) prodtest.Settings {
	out := s.Clone()
	if out.HasVoltage("vdd") {
		for _, field := range Fields {
			n, err := strconv.ParseFloat(f.Voltages[field.Label], 64)
			if err != nil {
				continue
			}
			out.Voltages[field.Key] = encodeLike(out.Voltages[field.Key], n)
		}
	}
	r := &prodtest.Reflash{Enable: f.ReflashEnable}
	if f.ReflashEnable {
		r.File = f.ReflashFile
	}
	out.Reflash = r
	return out
}
