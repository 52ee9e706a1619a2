package port

import "github.com/mangalakulal105/benchtrack/internal/application/dto"

// NotificationService defines the interface for pushing live updates to
// connected dashboard clients (Port)
// Implementation lives in the Infrastructure layer (WebSocket Hub)
type NotificationService interface {
	// BroadcastRun sends an ingested run to all connected clients
	BroadcastRun(event *dto.RunEventDTO)

	// BroadcastAlert sends a regression alert to all connected clients
	BroadcastAlert(alert *dto.AlertDTO)

	// ClientCount returns the number of connected clients
	ClientCount() int
}
