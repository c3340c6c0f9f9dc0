package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTaskID returns a fresh unique task identifier.
func NewTaskID() string {
	return uuid.NewString()
}

// NewSubTaskID returns a fresh unique subtask identifier.
func NewSubTaskID() string {
	return uuid.NewString()
}

// NewMeetingCode returns a human-readable meeting identifier. It is not
// guaranteed to be globally unique.
func NewMeetingCode(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("MTG-%s-%s", t.Format("20060102"), suffix)
}
