package port

import "context"

// EnvironmentProbe defines the interface for capturing runner host metadata
// attached to ingested runs (Port)
// Implementation lives in the Infrastructure layer
type EnvironmentProbe interface {
	// Describe returns host attributes (OS, CPU model, core count,
	// total memory) of the machine the service observes
	Describe(ctx context.Context) (map[string]interface{}, error)
}
