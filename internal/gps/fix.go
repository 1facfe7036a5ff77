package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/rdas/internal/faults"
)

// RMCPrefix is the talker+type tag of the sentences the loop consumes.
const RMCPrefix = "$GPRMC"

// Fix is one position report decoded from an RMC sentence.
type Fix struct {
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Time       string  `json:"time"`        // e.g. "12:35:19.0000"
	Date       string  `json:"date"`        // library format
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// IsRMC reports whether a raw serial line carries a $GPRMC sentence.
func IsRMC(line string) bool {
	return strings.HasPrefix(line, RMCPrefix)
}

// ParseRMC decodes one RMC sentence. Any failure wraps faults.ErrParse.
func ParseRMC(line string) (Fix, error) {
	line = strings.TrimSpace(line)

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, faults.Parse("nmea", err)
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, faults.Parse("nmea", fmt.Errorf("unexpected sentence type %q", sentence.DataType()))
	}
	m := sentence.(nmea.RMC)

	return Fix{
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Validity:   string(m.Validity),
	}, nil
}
