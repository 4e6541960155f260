package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/prodtest"
)

func TestValidateVoltage(t *testing.T) {
	tests := []struct {
		prev, input, want string
	}{
		{"1800", "5000", "1800"},
		{"1800", "4001", "1800"},
		{"1800", "4000", "4000"},
		{"1", "00", "0"},
		{"1", "", "0"},
		{"45", "0450", "450"},
		{"180", "18a0", "180"},
		{"180", "-1", "180"},
		{"180", "1.5", "1.5"},
		{"180", "1.2.3", "180"},
		{"180", ".", "180"},
		{"0", ".5", "0.5"},
		{"0", "00.5", "0.5"},
		{"0", "012.50", "12.50"},
		{"1", "1.", "1."},
		{"1", "3999.9", "3999.9"},
		{"1", "4000.1", "1"},
		{"1", "1e3", "1"},
		{"0", "01", "1"},
		{"0", "99999999999999999999", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateVoltage(tt.prev, tt.input), "prev=%q input=%q", tt.prev, tt.input)
	}
}

func decodeSettings(t *testing.T, s string) prodtest.Settings {
	t.Helper()
	var out prodtest.Settings
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm(prodtest.Settings{})
	assert.Equal(t, map[string]string{"VDDL": "1800", "VDDH": "3300", "VDD12": "1200", "VBUS": "1800"}, f.Voltages)
	assert.False(t, f.ReflashEnable)
	assert.True(t, f.CanSubmit())
}

func TestNewForm_FromBackend(t *testing.T) {
	f := NewForm(decodeSettings(t, `{"voltages":{"vdd":1700,"vled":3000,"vddtx":1100,"vpu":1900},"reflash":{"enable":true,"file":"/tmp/fw.hex"}}`))
	assert.Equal(t, "1700", f.Voltages["VDDL"])
	assert.Equal(t, "1900", f.Voltages["VBUS"])
	assert.True(t, f.ReflashEnable)
	assert.Equal(t, "/tmp/fw.hex", f.ReflashFile)
}

func TestForm_CanSubmit(t *testing.T) {
	f := NewForm(prodtest.Settings{})

	f.ReflashEnable = true
	assert.False(t, f.CanSubmit(), "reflash enabled without file")

	f.ReflashFile = "/tmp/fw.hex"
	assert.True(t, f.CanSubmit())

	f.ImageError = true
	assert.False(t, f.CanSubmit())
	f.ImageError = false

	f.Voltages["VBUS"] = ""
	assert.False(t, f.CanSubmit())
}

func TestForm_SetVoltage(t *testing.T) {
	f := NewForm(prodtest.Settings{})
	assert.Equal(t, "1800", f.SetVoltage("VDDL", "5000"))
	assert.Equal(t, "250", f.SetVoltage("VDDL", "0250"))
	assert.Equal(t, "250", f.Voltages["VDDL"])
}

func TestForm_StageWithVoltages(t *testing.T) {
	in := decodeSettings(t, `{"voltages":{"vdd":1800,"vled":3300,"vddtx":1200,"vpu":1800},"reflash":{"enable":true,"file":"old.hex"},"keep":1}`)
	f := NewForm(in)
	f.SetVoltage("VDDH", "2800")
	f.ReflashEnable = false

	out := f.Stage(in)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"voltages":{"vdd":1800,"vled":2800,"vddtx":1200,"vpu":1800},"reflash":{"enable":false},"keep":1}`, string(data))

	v, _ := in.Voltage("vled")
	assert.Equal(t, "3300", v, "input settings untouched")
}

func TestForm_StageKeepsStringVoltages(t *testing.T) {
	in := decodeSettings(t, `{"voltages":{"vdd":"1800","vled":"3300","vddtx":"1200","vpu":"1800"}}`)
	f := NewForm(in)
	f.SetVoltage("VDDL", "1650")

	data, err := json.Marshal(f.Stage(in))
	require.NoError(t, err)
	assert.JSONEq(t, `{"voltages":{"vdd":"1650","vled":"3300","vddtx":"1200","vpu":"1800"},"reflash":{"enable":false}}`, string(data))
}

func TestForm_StageDecimalVoltages(t *testing.T) {
	in := decodeSettings(t, `{"voltages":{"vdd":1800,"vled":"3300","vddtx":1200,"vpu":1800}}`)
	f := NewForm(in)
	f.SetVoltage("VDDL", "1.")
	f.SetVoltage("VDDH", "3300.50")

	data, err := json.Marshal(f.Stage(in))
	require.NoError(t, err)
	assert.JSONEq(t, `{"voltages":{"vdd":1,"vled":"3300.5","vddtx":1200,"vpu":1800},"reflash":{"enable":false}}`, string(data))
}

func TestForm_StageWithoutVoltages(t *testing.T) {
	in := decodeSettings(t, `{"mode":"spi"}`)
	f := NewForm(in)
	f.SetVoltage("VDDL", "1000")
	f.ReflashEnable = true
	f.ReflashFile = "/tmp/image.ihex"

	out := f.Stage(in)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"spi","reflash":{"enable":true,"file":"/tmp/image.ihex"}}`, string(data))
}
