package utils

import "encoding/hex"

// TrimHexPrefix removes a leading 0x or 0X if present.
func TrimHexPrefix(hexStr string) string {
	if len(hexStr) >= 2 && hexStr[0] == '0' && (hexStr[1] == 'x' || hexStr[1] == 'X') {
		return hexStr[2:]
	}
	return hexStr
}

// IsHex reports whether s (with or without 0x prefix) is a non-empty,
// even-length hex string.
func IsHex(s string) bool {
	s = TrimHexPrefix(s)
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
