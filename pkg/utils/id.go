package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a short unique identifier such as "P3f9c2a1b7d04"
func GenerateID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + raw[:12]
}
