package alerting

import "sync"

// RecordedAlert is one alert captured by a Recorder.
type RecordedAlert struct {
	Kind     string
	Severity Severity
	Details  map[string]any
}

// Recorder is a Sink that captures alerts in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	alerts []RecordedAlert
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Raise captures the alert.
func (r *Recorder) Raise(kind string, severity Severity, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, RecordedAlert{Kind: kind, Severity: severity, Details: details})
}

// Alerts returns a copy of all captured alerts.
func (r *Recorder) Alerts() []RecordedAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedAlert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// ByKind returns captured alerts with the given kind.
func (r *Recorder) ByKind(kind string) []RecordedAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordedAlert
	for _, alert := range r.alerts {
		if alert.Kind == kind {
			out = append(out, alert)
		}
	}
	return out
}

// Reset drops all captured alerts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = nil
}
