package shipping

import (
	"context"
	"math"
	"unicode/utf8"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"go.uber.org/zap"
)

// DistanceLookup returns the driving distance in km from the store to address.
type DistanceLookup interface {
	Distance(ctx context.Context, address string) (float64, error)
}

type Input struct {
	Delivery domain.DeliveryMethod
	City     string
	Address  string
	Subtotal int64
}

type Estimator struct {
	cfg    Config
	lookup DistanceLookup
	logger *zap.Logger
}

// NewEstimator builds an estimator. lookup may be nil, in which case local quotes come from the distance table.
func NewEstimator(cfg Config, lookup DistanceLookup, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{cfg: cfg, lookup: lookup, logger: logger}
}

func (e *Estimator) Config() Config {
	return e.cfg
}

// Estimate applies the shipping rules in order; the first match wins.
func (e *Estimator) Estimate(ctx context.Context, in Input) domain.ShippingQuote {
	if in.Delivery == domain.DeliveryPickup {
		return domain.ShippingQuote{Basis: domain.BasisPickup}
	}

	city := NormalizeCity(in.City)
	if city == "" {
		return domain.ShippingQuote{Basis: domain.BasisPending, Reason: domain.PendingSelectCity}
	}

	if !e.cfg.IsLocal(city) {
		return domain.ShippingQuote{Cost: e.cfg.NationalRate, Basis: domain.BasisZoneFixed}
	}

	if in.Subtotal >= e.cfg.FreeThreshold {
		return domain.ShippingQuote{Basis: domain.BasisFreeThreshold}
	}

	if utf8.RuneCountInString(trim(in.Address)) < e.cfg.MinAddressLen {
		return domain.ShippingQuote{Basis: domain.BasisPending, Reason: domain.PendingEnterAddress}
	}

	if e.lookup != nil {
		km, err := e.liveDistance(ctx, in.Address, city)
		if err == nil {
			return domain.ShippingQuote{Cost: e.price(km), Basis: domain.BasisDistanceAPI, DistanceKm: km}
		}
		e.logger.Warn("distance lookup failed, using table",
			zap.String("city", city),
			zap.Error(err))
	}

	km := e.cfg.TableDistance(city)
	return domain.ShippingQuote{Cost: e.price(km), Basis: domain.BasisDistanceTable, DistanceKm: km}
}

func (e *Estimator) liveDistance(ctx context.Context, address, city string) (float64, error) {
	if e.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.LookupTimeout)
		defer cancel()
	}

	km, err := e.lookup.Distance(ctx, e.cfg.FullAddress(address, city))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return 0, ErrNoRoute
	}
	return km, nil
}

func (e *Estimator) price(km float64) int64 {
	return int64(math.Ceil(km)) * e.cfg.PerKmRate
}
