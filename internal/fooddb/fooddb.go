// Package fooddb describes upstream food databases used to enrich the local catalog.
package fooddb

import (
	"context"
	"errors"
)

// ErrNoMatch is returned when the upstream database has no usable product.
var ErrNoMatch = errors.New("no matching product")

// Product carries canonical per-100g nutrition facts from an upstream source.
type Product struct {
	ExternalID         string
	Name               string
	Brand              string
	Category           string
	Calories           *float64
	ProteinG           *float64
	CarbsG             *float64
	FatG               *float64
	FiberG             *float64
	SugarG             *float64
	SodiumMg           *float64
	ServingSize        string
	ServingWeightGrams *float64
}

// Database is an external food database.
type Database interface {
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	LookupBarcode(ctx context.Context, barcode string) (Product, error)
}
