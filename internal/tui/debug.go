package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/logging"
	"github.com/javiermolinar/meetin/internal/selection"
)

// DebugLogPath is the fixed path for debug logs.
const DebugLogPath = "meetin-debug.log"

// Global debug logger, a no-op unless debug mode is on.
var debugLog = logging.Nop()

// InitDebugLogger starts logging TUI events to DebugLogPath if enabled.
func InitDebugLogger(enabled bool) error {
	if !enabled {
		debugLog = logging.Nop()
		return nil
	}
	l, err := logging.NewFile(DebugLogPath)
	if err != nil {
		return fmt.Errorf("creating debug log: %w", err)
	}
	debugLog = l
	debugLog.Info("debug start", zap.String("log_file", DebugLogPath))
	return nil
}

// CloseDebugLogger flushes the debug log.
func CloseDebugLogger() {
	debugLog.Info("debug end")
	_ = debugLog.Sync()
	debugLog = logging.Nop()
}

// LogKeyPress logs a key press event.
func LogKeyPress(msg tea.KeyMsg) {
	debugLog.Debug("key press", zap.String("key", msg.String()))
}

// LogModeChange logs a mode change.
func LogModeChange(from, to Mode, reason string) {
	debugLog.Debug("mode change",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason),
	)
}

// LogCursorMove logs cursor movement.
func LogCursorMove(slot int, reason string) {
	debugLog.Debug("cursor move", zap.Int("slot", slot), zap.String("reason", reason))
}

// LogSelection logs the selection machine after an action.
func LogSelection(m *selection.Machine, action string) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Stringer("state", m.State()),
		zap.Int("anchor", m.Anchor()),
		zap.Int("active", m.Active()),
		zap.Ints("selected", m.Selected()),
		zap.Bool("truncated", m.Truncated()),
	}
	debugLog.Debug("selection", fields...)
}

// LogEvent logs a remote change notification.
func LogEvent(kind, roomID, bookingID string) {
	debugLog.Debug("room event",
		zap.String("type", kind),
		zap.String("room_id", roomID),
		zap.String("booking_id", bookingID),
	)
}

// LogError logs an error.
func LogError(context string, err error) {
	debugLog.Error(context, zap.Error(err))
}
