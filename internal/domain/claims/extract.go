package claims

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/astro-web3/mobile-access-gate/pkg/logger"
)

const jwtPartsCount = 3

var (
	ErrEmptyToken       = errors.New("token is empty")
	ErrInvalidTokenForm = errors.New("token does not have three segments")
	ErrPayloadNotObject = errors.New("token payload is not a JSON object")
)

// Extract decodes the payload segment of a dot-separated bearer token into a
// ClaimSet. It is total: any input, however malformed, yields a ClaimSet
// (possibly empty) and never a fault. The returned error is advisory; it
// reports why the set is degraded and is already logged here.
func Extract(ctx context.Context, token string) (*ClaimSet, error) {
	set, err := decode(token)
	if err != nil {
		logger.WarnContext(ctx, "token claims could not be decoded",
			slog.String("error", err.Error()),
		)
		return NewClaimSet(), err
	}
	return set, nil
}

func decode(token string) (*ClaimSet, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != jwtPartsCount {
		return nil, ErrInvalidTokenForm
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}

	return parsePayload(payload)
}

// parsePayload streams the JSON object token by token so that claim keys are
// recorded in the order the payload lists them.
func parsePayload(payload []byte) (*ClaimSet, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	open, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}
	if delim, ok := open.(json.Delim); !ok || delim != '{' {
		return nil, ErrPayloadNotObject
	}

	set := NewClaimSet()
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse claim name: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, ErrPayloadNotObject
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse claim %q: %w", key, err)
		}

		set.Set(key, classify(raw))
	}

	return set, nil
}

func classify(raw any) Value {
	switch v := raw.(type) {
	case string:
		return Value{Kind: KindText, Text: v}
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Value{Kind: KindOther, Raw: raw}
			}
			list = append(list, s)
		}
		return Value{Kind: KindTextList, List: list}
	default:
		return Value{Kind: KindOther, Raw: raw}
	}
}
