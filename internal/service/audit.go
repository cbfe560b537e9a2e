// internal/service/audit.go
package service

import (
	"log/slog"
)

// Auditor receives fire-and-forget audit notifications after each engine
// operation. The engine must never block on audit delivery.
type Auditor interface {
	LogSuccess(action, userID, details, resourceID string)
	LogFailure(action, userID, details, resourceID string)
}

type auditEvent struct {
	action     string
	userID     string
	details    string
	resourceID string
	success    bool
}

// SlogAuditor drains audit events onto the structured log from a background
// goroutine. Events are dropped rather than blocking the caller when the
// buffer is full.
type SlogAuditor struct {
	events chan auditEvent
	logger *slog.Logger
	done   chan struct{}
}

// NewSlogAuditor creates and starts a SlogAuditor.
func NewSlogAuditor(logger *slog.Logger) *SlogAuditor {
	a := &SlogAuditor{
		events: make(chan auditEvent, 256),
		logger: logger,
		done:   make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *SlogAuditor) drain() {
	defer close(a.done)
	for e := range a.events {
		if e.success {
			a.logger.Info("audit", "action", e.action, "user_id", e.userID, "details", e.details, "resource_id", e.resourceID)
		} else {
			a.logger.Warn("audit", "action", e.action, "user_id", e.userID, "details", e.details, "resource_id", e.resourceID)
		}
	}
}

func (a *SlogAuditor) submit(e auditEvent) {
	select {
	case a.events <- e:
	default:
		// Buffer full; the engine must not block on audit delivery.
	}
}

// LogSuccess records a successful engine operation.
func (a *SlogAuditor) LogSuccess(action, userID, details, resourceID string) {
	a.submit(auditEvent{action: action, userID: userID, details: details, resourceID: resourceID, success: true})
}

// LogFailure records a failed engine operation.
func (a *SlogAuditor) LogFailure(action, userID, details, resourceID string) {
	a.submit(auditEvent{action: action, userID: userID, details: details, resourceID: resourceID})
}

// Close stops the drain goroutine after the buffer empties.
func (a *SlogAuditor) Close() {
	close(a.events)
	<-a.done
}

// Compile-time check: SlogAuditor implements Auditor.
var _ Auditor = (*SlogAuditor)(nil)
