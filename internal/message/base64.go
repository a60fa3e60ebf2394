package message

import (
	"encoding/base64"
	"fmt"
)

// base64 variants seen in Gmail bodies: standard with padding, URL-safe with
// and without padding.
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64 decodes message body content, accepting standard or URL-safe
// base64 with or without padding.
func DecodeBase64(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	for _, enc := range base64Encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}

	return "", fmt.Errorf("invalid base64 content")
}

// EncodeBase64URLSafe encodes data the way Gmail encodes message bodies:
// URL-safe alphabet, no padding.
func EncodeBase64URLSafe(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
