package remote

import (
	"errors"
	"testing"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

type recordingSink struct {
	rows []AuditRow
}

func (s *recordingSink) Create(row AuditRow) error {
	s.rows = append(s.rows, row)
	return nil
}

func TestAuditLogger_RedactsSensitiveArgs(t *testing.T) {
	sink := &recordingSink{}
	al := NewAuditLogger(logger.New(logger.Config{Level: "error"}), sink)

	al.Log("telnet", "127.0.0.1:1", "auth", map[string]any{
		"password": "hunter2",
		"other":    "visible",
	}, true, time.Millisecond, nil)

	if len(sink.rows) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(sink.rows))
	}
	row := sink.rows[0]
	if row.Command != "auth" || !row.Success {
		t.Fatalf("unexpected row: %+v", row)
	}
	if containsRaw(row.ArgsJSON, "hunter2") {
		t.Fatalf("expected password redacted in persisted args, got %s", row.ArgsJSON)
	}
	if !containsRaw(row.ArgsJSON, "visible") {
		t.Fatalf("expected non-sensitive arg preserved, got %s", row.ArgsJSON)
	}
}

func TestAuditLogger_RecordsFailureError(t *testing.T) {
	sink := &recordingSink{}
	al := NewAuditLogger(logger.New(logger.Config{Level: "error"}), sink)

	al.Log("zmq", "10.0.0.1:2", "set_label", nil, false, time.Millisecond, errors.New("boom"))

	if len(sink.rows) != 1 || sink.rows[0].Error != "boom" {
		t.Fatalf("expected recorded failure error, got %+v", sink.rows)
	}
}

func TestAuditLogger_NilSinkStillLogs(t *testing.T) {
	al := NewAuditLogger(logger.New(logger.Config{Level: "error"}), nil)
	al.Log("telnet", "c", "get_statistics", nil, true, time.Millisecond, nil)
}

func TestRedactArgs(t *testing.T) {
	safe := redactArgs(map[string]any{
		"auth_token": "xyz",
		"secret_key": "abc",
		"label":      "Now Playing",
	})
	if safe["auth_token"] != redacted || safe["secret_key"] != redacted {
		t.Fatalf("expected sensitive keys redacted, got %+v", safe)
	}
	if safe["label"] != "Now Playing" {
		t.Fatalf("expected non-sensitive key preserved, got %+v", safe)
	}
}

func containsRaw(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
