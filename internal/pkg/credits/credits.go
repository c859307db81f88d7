package credits

import (
	"fmt"
	"strconv"
	"strings"
)

// Type enumerates the recognized credit kinds. Webhook custom data claiming
// any other type is rejected before a single row is written.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
	TypeText  Type = "text"
)

// AllTypes lists every recognized credit type.
var AllTypes = []Type{TypeImage, TypeVideo, TypeText}

// ParseType validates a raw credit type string against the closed enumeration.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeImage:
		return TypeImage, nil
	case TypeVideo:
		return TypeVideo, nil
	case TypeText:
		return TypeText, nil
	default:
		return "", fmt.Errorf("unrecognized credit type: %q", raw)
	}
}

// ParseAmount validates a raw credit amount string as a positive integer.
func ParseAmount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid credit amount %q: %w", raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", n)
	}
	return n, nil
}
