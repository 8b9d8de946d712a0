package extract

import "unicode/utf8"

// extractPlain decodes content as UTF-8; when the bytes are not valid UTF-8
// it re-decodes as Latin-1, where every byte maps to the code point of the
// same value. Latin-1 decoding is total, so a .txt file never fails extraction.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes), nil
}
