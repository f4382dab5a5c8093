package loader

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
)

// IsJWT detects if input looks like a JWT token.
// A valid JWT has exactly 3 dot-separated parts where the first two
// are valid base64url-encoded JSON objects.
func IsJWT(input string) bool {
	parts, ok := jwtParts(input)
	if !ok {
		return false
	}
	for i := 0; i < 2; i++ {
		if _, err := decodeJWTPart(parts[i]); err != nil {
			return false
		}
	}
	// Signature just needs to be valid base64url (can contain any bytes)
	_, err := base64.RawURLEncoding.DecodeString(parts[2])
	return err == nil
}

func jwtParts(input string) ([]string, bool) {
	input = strings.TrimSpace(strings.TrimPrefix(input, "Bearer "))
	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return nil, false
	}
	for _, part := range parts {
		if part == "" {
			return nil, false
		}
	}
	return parts, true
}

func decodeJWTPart(part string) (*jsonvalue.Object, error) {
	raw, err := base64.RawURLEncoding.DecodeString(part)
	if err != nil {
		return nil, err
	}
	v, err := jsonvalue.JSON.Parse(string(raw))
	if err != nil {
		return nil, err
	}
	obj, ok := jsonvalue.AsObject(v)
	if !ok {
		return nil, fmt.Errorf("not a JSON object")
	}
	return obj, nil
}

// DecodeJWT splits and decodes a JWT token into an object with header,
// payload and signature keys. The signature stays base64url text.
func DecodeJWT(input string) (*jsonvalue.Object, error) {
	parts, ok := jwtParts(input)
	if !ok {
		return nil, fmt.Errorf("invalid JWT: expected 3 non-empty parts")
	}
	header, err := decodeJWTPart(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}
	payload, err := decodeJWTPart(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload: %w", err)
	}
	return jsonvalue.NewObject("header", header, "payload", payload, "signature", parts[2]), nil
}

func loadJWT(input string) ([]any, error) {
	decoded, err := DecodeJWT(input)
	if err != nil {
		return nil, err
	}
	return []any{decoded}, nil
}
