package util

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64MaybeDataURL decodes base64 image payloads, accepting both a
// bare string and a data:<mime>;base64,<payload> URI.
func DecodeBase64MaybeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			s = s[idx+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
