package decoder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinuxKeyLabel(t *testing.T) {
	for code, label := range linuxScanCodes {
		assert.Equal(t, label, LinuxKeyLabel(code), "code %d", code)
	}

	tests := []struct {
		code int
		want string
	}{
		{1, "[ESC]"},
		{2, "1"},
		{11, "0"},
		{16, "q"},
		{28, "[ENTER]"},
		{42, "[LSHIFT]"},
		{57, " "},
		{59, "[F1]"},
		{88, "[F12]"},
		{103, "[UP]"},
		{84, "84"},
		{240, "240"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LinuxKeyLabel(tt.code), "code %d", tt.code)
	}
}

func TestWindowsKeyLabelLetters(t *testing.T) {
	for vk := 'A'; vk <= 'Z'; vk++ {
		lower := string(vk + ('a' - 'A'))
		upper := string(vk)
		code := int(vk)

		assert.Equal(t, lower, WindowsKeyLabel(code))
		assert.Equal(t, upper, WindowsKeyLabel(code|vkShiftBit))
		assert.Equal(t, upper, WindowsKeyLabel(code|vkCapsBit))
		assert.Equal(t, lower, WindowsKeyLabel(code|vkShiftBit|vkCapsBit))
	}
}

func TestWindowsKeyLabelPairs(t *testing.T) {
	for vk, pair := range vkPairs {
		assert.Equal(t, pair[0], WindowsKeyLabel(vk), "vk 0x%02X", vk)
		assert.Equal(t, pair[1], WindowsKeyLabel(vk|vkShiftBit), "vk 0x%02X", vk)
		assert.Equal(t, pair[0], WindowsKeyLabel(vk|vkCapsBit), "caps does not shift 0x%02X", vk)
		assert.Equal(t, pair[1], WindowsKeyLabel(vk|vkShiftBit|vkCapsBit), "vk 0x%02X", vk)
	}
	assert.Equal(t, "!", WindowsKeyLabel(0x31|vkShiftBit))
	assert.Equal(t, "\"", WindowsKeyLabel(0xDE|vkShiftBit))
}

func TestWindowsKeyLabelNamed(t *testing.T) {
	for vk, name := range vkNames {
		for _, flags := range []int{0, vkShiftBit, vkCapsBit, vkShiftBit | vkCapsBit} {
			assert.Equal(t, name, WindowsKeyLabel(vk|flags), "vk 0x%02X flags 0x%03X", vk, flags)
		}
	}
}

func TestWindowsKeyLabelFallback(t *testing.T) {
	for _, vk := range []int{0x00, 0x07, 0x15, 0x80, 0xE5, 0xFF} {
		if _, ok := vkNames[vk]; ok {
			continue
		}
		assert.Equal(t, fmt.Sprintf("0x%02X", vk), WindowsKeyLabel(vk))
	}
	// Unmapped printable codes render literally.
	assert.Equal(t, "@", WindowsKeyLabel(0x40))
	assert.Equal(t, "~", WindowsKeyLabel(0x7E))
}

func TestStreamByteLabel(t *testing.T) {
	assert.Equal(t, "a", StreamByteLabel('a'))
	assert.Equal(t, " ", StreamByteLabel(' '))
	assert.Equal(t, "[ENTER]", StreamByteLabel('\r'))
	assert.Equal(t, "[ENTER]", StreamByteLabel('\n'))
	assert.Equal(t, "[BACKSPACE]", StreamByteLabel(0x7F))
	assert.Equal(t, "1b", StreamByteLabel(0x1B))
	assert.Equal(t, "09", StreamByteLabel('\t'))
	assert.Equal(t, "c3", StreamByteLabel(0xC3))
}
