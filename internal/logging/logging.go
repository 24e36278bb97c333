// Package logging wires structured logging for the pipeline, following the
// teacher's zap construction and per-entity scoping convention
// (services.LoggingService/BackendServer) without that teacher's database
// persistence and log-rotation machinery — this core holds no files or
// sockets open across a building call (spec §5), so logging here is a
// thin, stateless wrapper over *zap.Logger.
package logging

import (
	"go.uber.org/zap"
)

// New builds a production zap logger, matching the teacher's
// zap.NewProduction() construction (arx-backend/gateway_integration.go).
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewDevelopment builds a development zap logger (human-readable, DPanic on
// programmer error) for CLI use outside of a deployed batch run.
func NewDevelopment() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// ForBuilding scopes logger to one building's run, the per-entity pattern
// the teacher's LogContext.BuildingID field establishes.
func ForBuilding(logger *zap.Logger, buildingID string) *zap.Logger {
	return logger.With(zap.String("building_id", buildingID))
}

// PlaneFields returns the structured fields every per-candidate Debug log
// line carries: plane_id and plane_type, the two provenance tags spec §3
// assigns every candidate and accepted plane.
func PlaneFields(planeID, planeType string) []zap.Field {
	return []zap.Field{
		zap.String("plane_id", planeID),
		zap.String("plane_type", planeType),
	}
}

// BuildingSummaryFields returns the structured fields a per-building Info
// summary line carries once the pipeline finishes: how many planes were
// accepted and, if the building was excluded, why.
func BuildingSummaryFields(planesAccepted int, excludeReason string) []zap.Field {
	fields := []zap.Field{zap.Int("planes_accepted", planesAccepted)}
	if excludeReason != "" {
		fields = append(fields, zap.String("exclude_reason", excludeReason))
	}
	return fields
}
