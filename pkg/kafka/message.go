package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	EventConsolidationCompleted = "consolidation.completed"
	EventConsolidationFailed    = "consolidation.failed"
)

// RunEvent announces the outcome of a consolidation run.
type RunEvent struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Year      int       `json:"year"`
	Locale    string    `json:"locale"`
	Timestamp time.Time `json:"timestamp"`

	// Set on completed runs
	Stats       *consolidate.Stats `json:"stats,omitempty"`
	KPIs        *analytics.KPIs    `json:"kpis,omitempty"`
	Columns     []string           `json:"columns,omitempty"`
	Outputs     map[string]string  `json:"outputs,omitempty"`
	RecordTopic string             `json:"record_topic,omitempty"`

	// Set on failed runs
	Stage string `json:"stage,omitempty"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`

	// Tracing
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// ToJSON serializes the RunEvent to JSON bytes
func (e *RunEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ParseRunEvent parses a raw Kafka message value into a RunEvent
func ParseRunEvent(data []byte) (*RunEvent, error) {
	var e RunEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// RecordMessage carries one consolidated accident.
type RecordMessage struct {
	RunID     string                      `json:"run_id"`
	Year      int                         `json:"year"`
	Timestamp time.Time                   `json:"timestamp"`
	Accident  models.ConsolidatedAccident `json:"accident"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

func (m *RecordMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageHeaders contains Kafka message headers for efficient filtering
type MessageHeaders struct {
	EventType   string
	RunID       string
	Year        int
	TraceParent string
}

// ToKafkaHeaders converts MessageHeaders to a slice of header key-value pairs
func (h *MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 4)

	if h.EventType != "" {
		headers = append(headers, Header{Key: "event_type", Value: []byte(h.EventType)})
	}
	if h.RunID != "" {
		headers = append(headers, Header{Key: "run_id", Value: []byte(h.RunID)})
	}
	if h.Year != 0 {
		headers = append(headers, Header{Key: "year", Value: []byte(strconv.Itoa(h.Year))})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: "traceparent", Value: []byte(h.TraceParent)})
	}

	return headers
}

// Header represents a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// ExtractHeaders extracts MessageHeaders from Kafka headers
func ExtractHeaders(headers []Header) MessageHeaders {
	var mh MessageHeaders
	for _, h := range headers {
		switch h.Key {
		case "event_type":
			mh.EventType = string(h.Value)
		case "run_id":
			mh.RunID = string(h.Value)
		case "year":
			mh.Year, _ = strconv.Atoi(string(h.Value))
		case "traceparent":
			mh.TraceParent = string(h.Value)
		}
	}
	return mh
}

func traceParent(traceID, spanID string) string {
	if traceID == "" {
		return ""
	}
	return "00-" + traceID + "-" + spanID + "-01"
}
