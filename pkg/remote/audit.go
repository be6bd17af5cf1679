package remote

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

// sensitiveArgName matches argument keys whose values must be
// redacted before logging or persisting (spec.md §4.7 "fields matching
// /password|auth|token|secret|key/i redacted").
var sensitiveArgName = regexp.MustCompile(`(?i)password|auth|token|secret|key`)

const redacted = "***REDACTED***"

// AuditSink persists an audit entry durably. pkg/database's
// AuditRepository implements this; pkg/remote depends only on the
// interface so the command dispatcher never imports gorm directly.
type AuditSink interface {
	Create(entry AuditRow) error
}

// AuditRow is the durable shape an AuditSink stores; its fields
// mirror database.AuditEntry without requiring pkg/remote to import
// pkg/database's gorm tags.
type AuditRow struct {
	Timestamp  time.Time
	Source     string
	Client     string
	Command    string
	ArgsJSON   string
	Success    bool
	DurationMS float64
	Error      string
}

// AuditLogger records every executed remote-control command: always
// as a structured log line, and (when a sink is configured) as a
// durable row (SPEC_FULL.md §3 "Audit log persistence" keeps both
// effects from original_source's structlog+JSONL combination).
type AuditLogger struct {
	log  *logger.Logger
	sink AuditSink // nil disables durable persistence
}

// NewAuditLogger creates an audit logger. sink may be nil to log
// without durable persistence.
func NewAuditLogger(log *logger.Logger, sink AuditSink) *AuditLogger {
	return &AuditLogger{log: log.WithComponent("remote-audit"), sink: sink}
}

// Log records one command execution.
func (a *AuditLogger) Log(source, client, command string, args map[string]any, success bool, duration time.Duration, execErr error) {
	safeArgs := redactArgs(args)
	argsJSON, _ := json.Marshal(safeArgs)
	durationMS := float64(duration.Microseconds()) / 1000.0

	fields := []logger.Field{
		logger.String("source", source),
		logger.String("client", client),
		logger.String("command", command),
		logger.Any("args", safeArgs),
		logger.Bool("success", success),
		logger.Float64("duration_ms", durationMS),
	}
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
		fields = append(fields, logger.Error(execErr))
		a.log.Warn("command_failed", fields...)
	} else {
		a.log.Info("command_executed", fields...)
	}

	if a.sink == nil {
		return
	}
	row := AuditRow{
		Timestamp:  time.Now(),
		Source:     source,
		Client:     client,
		Command:    command,
		ArgsJSON:   string(argsJSON),
		Success:    success,
		DurationMS: durationMS,
		Error:      errMsg,
	}
	if err := a.sink.Create(row); err != nil {
		a.log.Error("failed to persist audit entry", logger.Error(err))
	}
}

func redactArgs(args map[string]any) map[string]any {
	safe := make(map[string]any, len(args))
	for k, v := range args {
		if sensitiveArgName.MatchString(k) {
			safe[k] = redacted
			continue
		}
		safe[k] = v
	}
	return safe
}
