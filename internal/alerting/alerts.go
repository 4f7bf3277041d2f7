// Package alerting emits a structured Alert for every ring accepted by ring
// assembly, broadcasts it to WebSocket subscribers, and pushes it to any
// registered webhook whose minimum severity the alert meets.
package alerting

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

// severityLevels ranks the fixed severity vocabulary for threshold checks.
var severityLevels = map[string]int{
	"info": 0, "low": 1, "medium": 2, "high": 3, "critical": 4,
}

// SeverityForRing derives an alert severity from a ring's risk score:
// critical >= 90, high >= 75, medium >= 60, else low.
func SeverityForRing(riskScore float64) string {
	switch {
	case riskScore >= 90:
		return "critical"
	case riskScore >= 75:
		return "high"
	case riskScore >= 60:
		return "medium"
	default:
		return "low"
	}
}

// Manager handles alert emission, in-memory history, and webhook delivery —
// generalized from the teacher's AlertManager, retargeted from CoinJoin and
// watchlist alerts to ring-detection alerts.
type Manager struct {
	mu            sync.RWMutex
	webhooks      []models.WebhookEndpoint
	recentAlerts  []models.Alert
	maxHistory    int
	httpClient    *http.Client
	alertCallback func(models.Alert) // WebSocket broadcast hook
}

// NewManager creates an alert manager. broadcastFn is called synchronously
// for every emitted alert; pass nil to disable WebSocket broadcast.
func NewManager(broadcastFn func(models.Alert)) *Manager {
	return &Manager{
		maxHistory:    1000,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		alertCallback: broadcastFn,
	}
}

// RegisterWebhook adds a webhook endpoint that receives alerts at or above minSeverity.
func (m *Manager) RegisterWebhook(name, url, minSeverity string, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, models.WebhookEndpoint{
		Name: name, URL: url, Enabled: true, Headers: headers, MinSeverity: minSeverity,
	})
	log.Printf("[alerting] registered webhook %s -> %s (min: %s)", name, url, minSeverity)
}

// RemoveWebhook removes a webhook by name.
func (m *Manager) RemoveWebhook(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, wh := range m.webhooks {
		if wh.Name == name {
			m.webhooks = append(m.webhooks[:i], m.webhooks[i+1:]...)
			return
		}
	}
}

// EmitForRing builds and distributes the alert for one accepted ring.
func (m *Manager) EmitForRing(ring models.Ring) {
	alert := models.Alert{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		Severity:       SeverityForRing(ring.RiskScore),
		RingID:         ring.RingID,
		PatternType:    ring.PatternType,
		MemberAccounts: append([]string(nil), ring.MemberAccounts...),
		RiskScore:      ring.RiskScore,
	}

	m.mu.Lock()
	m.recentAlerts = append(m.recentAlerts, alert)
	if len(m.recentAlerts) > m.maxHistory {
		m.recentAlerts = m.recentAlerts[len(m.recentAlerts)-m.maxHistory:]
	}
	webhooks := append([]models.WebhookEndpoint(nil), m.webhooks...)
	m.mu.Unlock()

	if m.alertCallback != nil {
		m.alertCallback(alert)
	}

	for _, wh := range webhooks {
		if !wh.Enabled || !severityMeetsThreshold(alert.Severity, wh.MinSeverity) {
			continue
		}
		go m.sendWebhook(wh, alert)
	}

	log.Printf("[alert] [%s] %s ring %s (%d members, risk %.1f)", alert.Severity, alert.PatternType, alert.RingID, len(alert.MemberAccounts), alert.RiskScore)
}

// RecentAlerts returns up to limit alerts, most recent first. limit <= 0 returns all.
func (m *Manager) RecentAlerts(limit int) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.recentAlerts) {
		limit = len(m.recentAlerts)
	}
	start := len(m.recentAlerts) - limit
	result := make([]models.Alert, limit)
	for i := 0; i < limit; i++ {
		result[i] = m.recentAlerts[start+limit-1-i]
	}
	return result
}

func (m *Manager) sendWebhook(wh models.WebhookEndpoint, alert models.Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("[alerting] failed to marshal alert: %v", err)
		return
	}
	req, err := http.NewRequest("POST", wh.URL, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("[alerting] failed to build request for %s: %v", wh.Name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for key, val := range wh.Headers {
		req.Header.Set(key, val)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[alerting] failed to send to %s: %v", wh.Name, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("[alerting] %s returned status %d", wh.Name, resp.StatusCode)
	}
}

func severityMeetsThreshold(severity, minimum string) bool {
	return severityLevels[severity] >= severityLevels[minimum]
}
