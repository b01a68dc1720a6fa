// Package readers holds the ingestion adapters for recorded traffic.
package readers

import "github.com/khanhnv2901/seca-traffic/internal/domain/timeline"

// DefaultRegistry registers every built-in reader.
func DefaultRegistry() *timeline.Registry {
	return timeline.NewRegistry(
		NewPCAPReader(),
		NewHARReader(),
	)
}
