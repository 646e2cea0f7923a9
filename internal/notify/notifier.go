package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	fuel "fuel-dashboard/internal/fuel/domain"
)

// TankReading is a tank level observed after a withdrawal.
type TankReading struct {
	PlazaID   string
	PlazaName string
	Balance   float64
	Withdrawn float64
	Actor     string
	At        time.Time
}

// Clock provides time for dedupe bookkeeping.
type Clock interface {
	Now() time.Time
}

type sendRecord struct {
	at   time.Time
	hash string
}

// TankNotifier sends low-level alerts for plaza tanks.
type TankNotifier struct {
	channel      Channel
	template     *Template
	thresholds   fuel.Thresholds
	clock        Clock
	logger       *zap.Logger
	mu           sync.Mutex
	sent         map[string]sendRecord
	cooldown     time.Duration
	dedupeWindow time.Duration
}

// Option configures the notifier.
type Option func(*TankNotifier)

// WithThresholds overrides the default tank thresholds.
func WithThresholds(th fuel.Thresholds) Option {
	return func(n *TankNotifier) {
		if th.Warning > 0 || th.Critical > 0 {
			n.thresholds = th
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *TankNotifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithCooldown sets a minimum interval between alerts for the same plaza and status.
func WithCooldown(interval time.Duration) Option {
	return func(n *TankNotifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithDedupeWindow suppresses identical alerts within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *TankNotifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *zap.Logger) Option {
	return func(n *TankNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewTankNotifier constructs a notifier.
func NewTankNotifier(channel Channel, template *Template, opts ...Option) (*TankNotifier, error) {
	if channel == nil {
		return nil, errors.New("tank notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &TankNotifier{
		channel:    channel,
		template:   template,
		thresholds: fuel.DefaultThresholds,
		clock:      systemClock{},
		logger:     zap.NewNop(),
		sent:       make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Evaluate classifies the reading and sends an alert for WARNING or CRITICAL
// levels. It returns the status and whether an alert was delivered.
func (n *TankNotifier) Evaluate(ctx context.Context, reading TankReading) (fuel.TankStatus, bool) {
	if n == nil {
		return fuel.TankNormal, false
	}
	status := n.thresholds.Classify(reading.Balance)
	if status == fuel.TankNormal {
		return status, false
	}

	content, err := n.template.Render(n.buildData(reading, status))
	if err != nil {
		n.logger.Warn("tank alert render failed", zap.Error(err))
		return status, false
	}
	if !n.shouldSend(reading.PlazaID, status, content) {
		return status, false
	}
	if err := n.channel.Send(ctx, content); err != nil {
		n.logger.Warn("tank alert delivery failed", zap.String("plaza_id", reading.PlazaID), zap.Error(err))
		return status, false
	}
	n.markSent(reading.PlazaID, status, content)
	return status, true
}

func (n *TankNotifier) buildData(reading TankReading, status fuel.TankStatus) TemplateData {
	plaza := reading.PlazaName
	if plaza == "" {
		plaza = reading.PlazaID
	}
	threshold := n.thresholds.Warning
	suggestion := "Schedule a refuel delivery."
	if status == fuel.TankCritical {
		threshold = n.thresholds.Critical
		suggestion = "Refuel immediately; generators may run dry."
	}
	at := reading.At
	if at.IsZero() {
		at = n.clock.Now()
	}
	return TemplateData{
		Plaza:      plaza,
		PlazaID:    reading.PlazaID,
		Balance:    formatFloat(reading.Balance),
		Threshold:  formatFloat(threshold),
		Withdrawn:  formatFloat(reading.Withdrawn),
		Actor:      reading.Actor,
		Time:       at.UTC().Format(time.RFC3339),
		Status:     string(status),
		Suggestion: suggestion,
	}
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func (n *TankNotifier) shouldSend(plazaID string, status fuel.TankStatus, content string) bool {
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return true
	}
	key := notificationKey(plazaID, status)
	now := n.clock.Now().UTC()
	hash := hashContent(content)

	n.mu.Lock()
	record, ok := n.sent[key]
	n.mu.Unlock()
	if !ok {
		return true
	}
	if n.cooldown > 0 && now.Sub(record.at) < n.cooldown {
		return false
	}
	if n.dedupeWindow > 0 && record.hash == hash && now.Sub(record.at) < n.dedupeWindow {
		return false
	}
	return true
}

func (n *TankNotifier) markSent(plazaID string, status fuel.TankStatus, content string) {
	key := notificationKey(plazaID, status)
	n.mu.Lock()
	n.sent[key] = sendRecord{
		at:   n.clock.Now().UTC(),
		hash: hashContent(content),
	}
	n.mu.Unlock()
}

func notificationKey(plazaID string, status fuel.TankStatus) string {
	return plazaID + "|" + string(status)
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
