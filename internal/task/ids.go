package task

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates a task id: a millisecond timestamp prefix in base36 for
// rough chronological ordering, plus a random suffix for uniqueness.
// The exact format is not a compatibility contract.
func NewID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "tsk_" + ts + "_" + suffix
}
