package shipping

import (
	"errors"
	"strings"
)

var (
	ErrNoGeocodeResult = errors.New("geocoder returned no features")
	ErrNoRoute         = errors.New("distance matrix returned no usable route")
	ErrLookupDisabled  = errors.New("distance lookup not configured")
)

func trim(s string) string {
	return strings.TrimSpace(s)
}
