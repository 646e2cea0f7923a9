package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actions recorded by the dashboard.
const (
	ActionFuelAdded       = "fuel.added"
	ActionFuelUsed        = "fuel.used"
	ActionPlazaCreated    = "plaza.created"
	ActionPlazaDeleted    = "plaza.deleted"
	ActionGeneratorAdded  = "generator.created"
	ActionGeneratorDelete = "generator.deleted"
	ActionUserCreated     = "user.created"
	ActionReportExported  = "report.exported"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	PlazaID       string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Metadata marshals v for Entry.Metadata, returning nil on failure.
func Metadata(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// ZapLogger writes audit entries to a structured logger. It is used when no
// database is configured, for example by the report command.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger constructs a log-only audit logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger.Named("audit")}
}

// Log writes the entry as a structured log line.
func (l *ZapLogger) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	l.logger.Info(entry.Action,
		zap.String("actor", entry.Actor),
		zap.String("role", entry.Role),
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.String("plaza_id", entry.PlazaID),
		zap.ByteString("metadata", entry.Metadata),
	)
	return nil
}
