package gps

import "time"

// Fix represents a single combined GPS fix suitable for JSON and geotagging.
// A Fix is immutable once constructed: the sampling loop builds a fresh one
// per decoded reading and supersedes rather than edits.
type Fix struct {
	Latitude   float64   `json:"lat"`          // decimal degrees, signed
	Longitude  float64   `json:"lon"`          // decimal degrees, signed
	Altitude   float64   `json:"alt_m"`        // meters above reference
	HasAlt     bool      `json:"has_alt"`      // altitude was reported
	Quality    int       `json:"quality"`      // 0 = no fix, higher = more trustworthy
	Satellites int       `json:"satellites"`   // 0 if not reported
	Time       time.Time `json:"time_utc"`     // receiver-reported UTC, zero if unknown
	HasTime    bool      `json:"has_time_utc"` // Time field is meaningful
}
