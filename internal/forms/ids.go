package forms

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference returns an appointment reference like KTRH-2025-48213.
func NewReference(now time.Time) string {
	return fmt.Sprintf("KTRH-%d-%05d", now.Year(), 10000+rand.IntN(90000))
}

// NewApplicationID returns an id like APP-1A2B3C4D.
func NewApplicationID(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
