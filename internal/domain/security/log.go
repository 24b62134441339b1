package security

import (
	"strconv"
	"strings"
	"time"
)

// LogEntry is one intrusion record. ID is assigned by the log repository.
type LogEntry struct {
	ID          int64
	Timestamp   time.Time
	Description string
}

// DescribeSensors formats sensor ids as a bracketed list, e.g. "[1, 8]".
func DescribeSensors(sensors []Sensor) string {
	var b strings.Builder

	b.WriteByte('[')

	for i, s := range sensors {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(strconv.Itoa(s.ID()))
	}

	b.WriteByte(']')

	return b.String()
}
