package decoder

import "fmt"

// Windows capture entries carry the virtual-key code in the low byte and the
// modifier state in the high byte.
const (
	vkShiftBit = 0x100
	vkCapsBit  = 0x200
)

// vkPairs holds keys whose character depends on shift: {unshifted, shifted}.
var vkPairs = map[int][2]string{
	0x30: {"0", ")"}, 0x31: {"1", "!"}, 0x32: {"2", "@"}, 0x33: {"3", "#"}, 0x34: {"4", "$"},
	0x35: {"5", "%"}, 0x36: {"6", "^"}, 0x37: {"7", "&"}, 0x38: {"8", "*"}, 0x39: {"9", "("},
	0xBA: {";", ":"},
	0xBB: {"=", "+"},
	0xBC: {",", "<"},
	0xBD: {"-", "_"},
	0xBE: {".", ">"},
	0xBF: {"/", "?"},
	0xC0: {"`", "~"},
	0xDB: {"[", "{"},
	0xDC: {"\\", "|"},
	0xDD: {"]", "}"},
	0xDE: {"'", "\""},
}

var vkNames = map[int]string{
	0x08: "[BACKSPACE]",
	0x09: "[TAB]",
	0x0D: "[ENTER]",
	0x10: "[SHIFT]",
	0x11: "[CTRL]",
	0x12: "[ALT]",
	0x13: "[PAUSE]",
	0x14: "[CAPSLOCK]",
	0x1B: "[ESC]",
	0x20: " ",
	0x21: "[PAGEUP]",
	0x22: "[PAGEDOWN]",
	0x23: "[END]",
	0x24: "[HOME]",
	0x25: "[LEFT]",
	0x26: "[UP]",
	0x27: "[RIGHT]",
	0x28: "[DOWN]",
	0x2C: "[PRINTSCREEN]",
	0x2D: "[INSERT]",
	0x2E: "[DELETE]",
	0x5B: "[LWIN]",
	0x5C: "[RWIN]",
	0x60: "0", 0x61: "1", 0x62: "2", 0x63: "3", 0x64: "4",
	0x65: "5", 0x66: "6", 0x67: "7", 0x68: "8", 0x69: "9",
	0x6A: "*",
	0x6B: "+",
	0x6D: "-",
	0x6E: ".",
	0x6F: "/",
	0x70: "[F1]", 0x71: "[F2]", 0x72: "[F3]", 0x73: "[F4]", 0x74: "[F5]", 0x75: "[F6]",
	0x76: "[F7]", 0x77: "[F8]", 0x78: "[F9]", 0x79: "[F10]", 0x7A: "[F11]", 0x7B: "[F12]",
	0x90: "[NUMLOCK]",
	0x91: "[SCROLLLOCK]",
	0xA0: "[LSHIFT]",
	0xA1: "[RSHIFT]",
	0xA2: "[LCTRL]",
	0xA3: "[RCTRL]",
	0xA4: "[LALT]",
	0xA5: "[RALT]",
}

// WindowsKeyLabel renders one capture entry.
func WindowsKeyLabel(entry int) string {
	vk := entry & 0xFF
	shift := entry&vkShiftBit != 0
	caps := entry&vkCapsBit != 0

	if vk >= 'A' && vk <= 'Z' {
		if caps != shift {
			return string(rune(vk))
		}
		return string(rune(vk + ('a' - 'A')))
	}
	if pair, ok := vkPairs[vk]; ok {
		if shift {
			return pair[1]
		}
		return pair[0]
	}
	if name, ok := vkNames[vk]; ok {
		return name
	}
	if vk >= 0x20 && vk <= 0x7E {
		return string(rune(vk))
	}
	return fmt.Sprintf("0x%02X", vk)
}
