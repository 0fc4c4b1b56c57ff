package shipping

import (
	"maps"
	"strings"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
)

// Coordinates is a [longitude, latitude] pair, the order OpenRouteService expects.
type Coordinates [2]float64

type Config struct {
	PerKmRate       int64
	NationalRate    int64
	FreeThreshold   int64
	MinAddressLen   int
	DefaultDistance float64
	LocalZone       map[string]bool
	Placeholders    map[string]bool
	DistanceTable   map[string]float64
	CityNames       map[string]string
	Department      string
	Country         string
	LookupTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PerKmRate:       1500,
		NationalRate:    30000,
		FreeThreshold:   100000,
		MinAddressLen:   5,
		DefaultDistance: 15,
		LocalZone: set("medellin", "envigado", "sabaneta", "itagui", "bello",
			"copacabana", "girardota", "barbosa", "caldas", "la_estrella"),
		Placeholders: set("nacional", "otro_antioquia"),
		DistanceTable: map[string]float64{
			"envigado":    0,
			"sabaneta":    5,
			"itagui":      6,
			"la_estrella": 8,
			"medellin":    10,
			"caldas":      12,
			"bello":       15,
			"copacabana":  20,
		},
		CityNames:     maps.Clone(domain.CityNames),
		Department:    "Antioquia",
		Country:       "Colombia",
		LookupTimeout: 5 * time.Second,
	}
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// IsLocal reports whether city is eligible for distance-based or free shipping.
func (c Config) IsLocal(city string) bool {
	return c.LocalZone[city] && !c.Placeholders[city]
}

func (c Config) CityName(city string) string {
	if name, ok := c.CityNames[city]; ok {
		return name
	}
	return city
}

// TableDistance is the approximate distance in km for city, or DefaultDistance when unmapped.
func (c Config) TableDistance(city string) float64 {
	if km, ok := c.DistanceTable[city]; ok {
		return km
	}
	return c.DefaultDistance
}

// FullAddress is the string handed to the geocoder.
func (c Config) FullAddress(address, city string) string {
	return strings.TrimSpace(address) + ", " + c.CityName(city) + ", " + c.Department + ", " + c.Country
}

func NormalizeCity(city string) string {
	return domain.NormalizeCity(city)
}
