package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var shortDuration = regexp.MustCompile(`^(\d+)([dwh])$`)

// ParseExpirationDuration turns a token lifetime into an expiry time.
// "" and "never" mean no expiry. Accepted otherwise: any Go duration
// ("90m"), a count of days, weeks or hours ("30d", "2w", "12h"), or a
// future date as "mm/dd/yyyy" or "mm/dd/yyyy HH:MM" (UTC).
func ParseExpirationDuration(expiresIn string) (*time.Time, error) {
	if expiresIn == "" || expiresIn == "never" {
		return nil, nil
	}

	if dur, err := time.ParseDuration(expiresIn); err == nil {
		t := time.Now().Add(dur)
		return &t, nil
	}

	for _, layout := range []string{"01/02/2006 15:04", "01/02/2006"} {
		if t, err := time.Parse(layout, expiresIn); err == nil {
			if t.Before(time.Now()) {
				return nil, fmt.Errorf("expiration date must be in the future: %s", expiresIn)
			}
			return &t, nil
		}
	}

	m := shortDuration.FindStringSubmatch(expiresIn)
	if len(m) != 3 {
		return nil, fmt.Errorf("invalid expiration format: %s (use 'never', '30d', '2w', '24h', '12/25/2030' or a Go duration)", expiresIn)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number in expiration: %s", expiresIn)
	}

	unit := map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour, "h": time.Hour}[m[2]]
	t := time.Now().Add(time.Duration(n) * unit)
	return &t, nil
}
