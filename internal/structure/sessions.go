package structure

import (
	"fmt"
	"strings"
	"time"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// previousDayExtremes returns the high and low of the previous completed UTC
// day relative to now. Zero values mean the series does not cover that day.
func previousDayExtremes(candles []models.Candle, now time.Time) (pdh, pdl float64) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	prevStart := dayStart.Add(-24 * time.Hour)

	for i := range candles {
		ts := candles[i].OpenTime.UTC()
		if ts.Before(prevStart) || !ts.Before(dayStart) {
			continue
		}
		if pdh == 0 || candles[i].High > pdh {
			pdh = candles[i].High
		}
		if pdl == 0 || candles[i].Low < pdl {
			pdl = candles[i].Low
		}
	}
	return pdh, pdl
}

// sessionExtremes returns the high/low of today's session window between
// startHour and endHour UTC. Zero values mean no candles fell in the window.
func sessionExtremes(candles []models.Candle, now time.Time, startHour, endHour int) (high, low float64) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	sessionStart := dayStart.Add(time.Duration(startHour) * time.Hour)
	sessionEnd := dayStart.Add(time.Duration(endHour) * time.Hour)

	for i := range candles {
		ts := candles[i].OpenTime.UTC()
		if ts.Before(sessionStart) || !ts.Before(sessionEnd) {
			continue
		}
		if high == 0 || candles[i].High > high {
			high = candles[i].High
		}
		if low == 0 || candles[i].Low < low {
			low = candles[i].Low
		}
	}
	return high, low
}

// sessionVWAP returns the volume-weighted average price over the current UTC
// day. Falls back to the last close when the day has no volume yet.
func sessionVWAP(candles []models.Candle, now time.Time) float64 {
	dayStart := now.UTC().Truncate(24 * time.Hour)

	var sumPV, sumV float64
	for i := range candles {
		ts := candles[i].OpenTime.UTC()
		if ts.Before(dayStart) {
			continue
		}
		sumPV += candles[i].TypicalPrice() * candles[i].Volume
		sumV += candles[i].Volume
	}

	if sumV == 0 {
		if len(candles) == 0 {
			return 0
		}
		return candles[len(candles)-1].Close
	}
	return sumPV / sumV
}

// KillZone is a named fixed UTC time-of-day window
type KillZone struct {
	Name      string
	StartMins int // minutes since midnight UTC
	EndMins   int
}

// ParseKillZones parses "name=HH:MM-HH:MM;name=HH:MM-HH:MM" definitions
func ParseKillZones(spec string) ([]KillZone, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var zones []KillZone
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		nameWindow := strings.SplitN(part, "=", 2)
		if len(nameWindow) != 2 {
			return nil, fmt.Errorf("invalid kill zone %q", part)
		}

		bounds := strings.SplitN(nameWindow[1], "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid kill zone window %q", nameWindow[1])
		}

		start, err := parseClock(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("invalid kill zone start %q: %w", bounds[0], err)
		}
		end, err := parseClock(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("invalid kill zone end %q: %w", bounds[1], err)
		}

		zones = append(zones, KillZone{
			Name:      strings.TrimSpace(nameWindow[0]),
			StartMins: start,
			EndMins:   end,
		})
	}

	return zones, nil
}

// parseClock parses HH:MM into minutes since midnight
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ActiveKillZone returns the name of the kill zone containing now, or "".
// Windows with an end before their start wrap across midnight UTC.
func ActiveKillZone(zones []KillZone, now time.Time) string {
	utc := now.UTC()
	mins := utc.Hour()*60 + utc.Minute()

	for _, z := range zones {
		if z.StartMins <= z.EndMins {
			if mins >= z.StartMins && mins < z.EndMins {
				return z.Name
			}
		} else if mins >= z.StartMins || mins < z.EndMins {
			return z.Name
		}
	}
	return ""
}
