// Package encoding converts the EUC-KR names stored in GRF archives.
package encoding

import (
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// EUCKRToUTF8 converts EUC-KR encoded bytes to a UTF-8 string.
// Returns the input unchanged if it does not decode.
func EUCKRToUTF8(data []byte) string {
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// EUCKRStringToUTF8 converts an EUC-KR encoded string to UTF-8.
func EUCKRStringToUTF8(s string) string {
	return EUCKRToUTF8([]byte(s))
}

// UTF8ToEUCKR converts a UTF-8 string to EUC-KR encoded bytes.
// Returns the input unchanged if it cannot be encoded.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizeGRFPath normalizes an archive path for case-insensitive lookup.
// Only ASCII bytes are folded: EUC-KR names are not valid UTF-8, and every
// byte of a multi-byte EUC-KR sequence is above 0x7F.
func NormalizeGRFPath(path string) string {
	b := []byte(path)
	for i, c := range b {
		switch {
		case c == '\\':
			b[i] = '/'
		case 'A' <= c && c <= 'Z':
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
