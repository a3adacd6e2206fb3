// Package worker provides background cache-warming jobs for ClimaCast.
package worker

import (
	"time"
)

// RefreshTarget represents a location group to keep warm.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to warm. Climatology is cached per
	// 0.1-degree grid cell, so one point per city is enough.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the cache-warming job.
type RefreshConfig struct {
	// Targets are the locations to warm.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for warming one point.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshClimatology enables climatology warming.
	// Default: true
	RefreshClimatology bool

	// RefreshWeather enables live-weather warming.
	// Default: true
	RefreshWeather bool

	// RecentLocationLimit is how many recently analyzed locations to warm in
	// addition to the fixed targets. Default: 20
	RecentLocationLimit int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:             DefaultRefreshTargets(),
		Concurrency:         3,
		Timeout:             30 * time.Second,
		RefreshClimatology:  true,
		RefreshWeather:      true,
		RecentLocationLimit: 20,
	}
}

// DefaultRefreshTargets returns the default warm set: one point per major
// city, spread across climates so every hazard profile stays exercised.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Americas",
			Priority: 1,
			Points: []Point{
				{Lat: 40.7128, Lon: -74.0060},  // New York
				{Lat: 34.0522, Lon: -118.2437}, // Los Angeles
				{Lat: 19.4326, Lon: -99.1332},  // Mexico City
				{Lat: -23.5505, Lon: -46.6333}, // São Paulo
			},
		},
		{
			Name:     "Europe",
			Priority: 1,
			Points: []Point{
				{Lat: 51.5074, Lon: -0.1278}, // London
				{Lat: 48.8566, Lon: 2.3522},  // Paris
				{Lat: 52.3676, Lon: 4.9041},  // Amsterdam
				{Lat: 64.1466, Lon: -21.9426}, // Reykjavik
			},
		},
		{
			Name:     "Asia-Pacific",
			Priority: 2,
			Points: []Point{
				{Lat: 35.6762, Lon: 139.6503},  // Tokyo
				{Lat: 19.0760, Lon: 72.8777},   // Mumbai
				{Lat: 1.3521, Lon: 103.8198},   // Singapore
				{Lat: -33.8688, Lon: 151.2093}, // Sydney
			},
		},
		{
			Name:     "Africa-MiddleEast",
			Priority: 2,
			Points: []Point{
				{Lat: -1.2921, Lon: 36.8219}, // Nairobi
				{Lat: 30.0444, Lon: 31.2357}, // Cairo
				{Lat: 25.2048, Lon: 55.2708}, // Dubai
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to warm.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
