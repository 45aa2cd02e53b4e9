// Package testutil provides common utility functions for testing.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/config"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/projection"
)

// FindProjection finds a deal projection by name in the results slice.
// Returns a pointer to the projection if found, nil otherwise.
func FindProjection(results []projection.Projection, name string) *projection.Projection {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// DealsFixturePath returns the absolute path of the shared deal fixture.
func DealsFixturePath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "test", "test_deals.yaml")
}

// LoadTestDeals loads the shared deal fixture or fails the test.
func LoadTestDeals(t testing.TB) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration(DealsFixturePath())
	if err != nil {
		t.Fatalf("failed to load %s: %v", DealsFixturePath(), err)
	}
	return conf
}
