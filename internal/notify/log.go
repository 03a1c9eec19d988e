package notify

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// LogListener writes every notification to the context logger.
type LogListener struct{}

// NewLogListener returns a listener that logs notifications.
func NewLogListener() *LogListener {
	return &LogListener{}
}

// AlarmStatusChanged logs the new alarm status.
func (*LogListener) AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	logger.InfoKV(ctx, "Alarm status changed", "alarm_status", status.String())
}

// CatDetected logs the classifier verdict.
func (*LogListener) CatDetected(ctx context.Context, present bool) {
	logger.InfoKV(ctx, "Camera frame classified", "cat_present", present)
}
