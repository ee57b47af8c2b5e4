package utils

import (
	"github.com/google/uuid"
)

// GenerateOrderID returns an opaque, globally unique order identifier.
// The prefix keeps ids recognizable in provider dashboards and logs.
func GenerateOrderID() string {
	return "TPU-" + uuid.NewString()
}
