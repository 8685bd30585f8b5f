package memory

import (
	"time"

	"wholesale-backend/internal/timeutil"
)

func timeDate(s string) (time.Time, error) {
	return timeutil.ParseDate(s)
}
