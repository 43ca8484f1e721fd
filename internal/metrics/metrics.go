// Package metrics provides lightweight, lock-free counters and gauges
// for a running call center, exported both as a JSON snapshot and as a
// Prometheus collector.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callcenter"

// Collector tracks runtime metrics for a call-center server.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	callsReceived atomic.Int64
	callsRung     atomic.Int64
	callsQueued   atomic.Int64
	callsAnswered atomic.Int64
	callsRejected atomic.Int64
	callsIgnored  atomic.Int64
	callsMissed   atomic.Int64
	callsFinished atomic.Int64

	queueDepth         atomic.Int64
	operatorsAvailable atomic.Int64
	operatorsRinging   atomic.Int64
	operatorsBusy      atomic.Int64

	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string

	regOnce  sync.Once
	registry *prometheus.Registry
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Call events ──────────────────────────────────────────────────────

// CallReceived records a new call arrival.
func (c *Collector) CallReceived() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsReceived }) }

// CallRung records a call offered to an operator.
func (c *Collector) CallRung() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsRung }) }

// CallQueued records a call parked in the waiting queue.
func (c *Collector) CallQueued() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsQueued }) }

// CallAnswered records an operator answering.
func (c *Collector) CallAnswered() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsAnswered }) }

// CallRejected records an operator rejecting a ringing call.
func (c *Collector) CallRejected() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsRejected }) }

// CallIgnored records a ring timeout reclaiming an operator.
func (c *Collector) CallIgnored() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsIgnored }) }

// CallMissed records a caller hanging up before being answered.
func (c *Collector) CallMissed() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsMissed }) }

// CallFinished records the end of an answered call.
func (c *Collector) CallFinished() { c.inc(func(c *Collector) *atomic.Int64 { return &c.callsFinished }) }

func (c *Collector) inc(field func(*Collector) *atomic.Int64) {
	if c == nil {
		return
	}
	field(c).Add(1)
}

// ── Dispatcher gauges ────────────────────────────────────────────────

// ObserveQueue records the number of waiting calls.
func (c *Collector) ObserveQueue(depth int) {
	if c == nil {
		return
	}
	c.queueDepth.Store(int64(depth))
}

// ObserveOperators records how many operators are in each state.
func (c *Collector) ObserveOperators(available, ringing, busy int) {
	if c == nil {
		return
	}
	c.operatorsAvailable.Store(int64(available))
	c.operatorsRinging.Store(int64(ringing))
	c.operatorsBusy.Store(int64(busy))
}

// QueueDepth returns the last observed queue depth.
func (c *Collector) QueueDepth() int64 {
	if c == nil {
		return 0
	}
	return c.queueDepth.Load()
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string `json:"uptime"`
	CallsReceived      int64  `json:"calls_received"`
	CallsRung          int64  `json:"calls_rung"`
	CallsQueued        int64  `json:"calls_queued"`
	CallsAnswered      int64  `json:"calls_answered"`
	CallsRejected      int64  `json:"calls_rejected"`
	CallsIgnored       int64  `json:"calls_ignored"`
	CallsMissed        int64  `json:"calls_missed"`
	CallsFinished      int64  `json:"calls_finished"`
	QueueDepth         int64  `json:"queue_depth"`
	OperatorsAvailable int64  `json:"operators_available"`
	OperatorsRinging   int64  `json:"operators_ringing"`
	OperatorsBusy      int64  `json:"operators_busy"`
	ConnectionsActive  int64  `json:"connections_active"`
	ConnectionsTotal   int64  `json:"connections_total"`
	ErrorsTotal        int64  `json:"errors_total"`
	LastError          string `json:"last_error,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		CallsReceived:      c.callsReceived.Load(),
		CallsRung:          c.callsRung.Load(),
		CallsQueued:        c.callsQueued.Load(),
		CallsAnswered:      c.callsAnswered.Load(),
		CallsRejected:      c.callsRejected.Load(),
		CallsIgnored:       c.callsIgnored.Load(),
		CallsMissed:        c.callsMissed.Load(),
		CallsFinished:      c.callsFinished.Load(),
		QueueDepth:         c.queueDepth.Load(),
		OperatorsAvailable: c.operatorsAvailable.Load(),
		OperatorsRinging:   c.operatorsRinging.Load(),
		OperatorsBusy:      c.operatorsBusy.Load(),
		ConnectionsActive:  c.connectionsActive.Load(),
		ConnectionsTotal:   c.connectionsTotal.Load(),
		ErrorsTotal:        c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

// ── Prometheus ───────────────────────────────────────────────────────

var (
	callsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "calls_total"),
		"Call events by outcome.",
		[]string{"event"}, nil)
	queueDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "depth"),
		"Number of calls waiting for an operator.",
		nil, nil)
	operatorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "operators"),
		"Number of operators by state.",
		[]string{"state"}, nil)
	connectionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "connections_active"),
		"Open client connections.",
		nil, nil)
	connectionsTotalDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "connections_total"),
		"Client connections accepted since start.",
		nil, nil)
	errorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "command_errors_total"),
		"Commands refused by the dispatcher.",
		nil, nil)
)

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- callsDesc
	ch <- queueDesc
	ch <- operatorsDesc
	ch <- connectionsDesc
	ch <- connectionsTotalDesc
	ch <- errorsDesc
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()

	for event, v := range map[string]int64{
		"received": s.CallsReceived,
		"rung":     s.CallsRung,
		"queued":   s.CallsQueued,
		"answered": s.CallsAnswered,
		"rejected": s.CallsRejected,
		"ignored":  s.CallsIgnored,
		"missed":   s.CallsMissed,
		"finished": s.CallsFinished,
	} {
		ch <- prometheus.MustNewConstMetric(callsDesc, prometheus.CounterValue, float64(v), event)
	}
	for state, v := range map[string]int64{
		"available": s.OperatorsAvailable,
		"ringing":   s.OperatorsRinging,
		"busy":      s.OperatorsBusy,
	} {
		ch <- prometheus.MustNewConstMetric(operatorsDesc, prometheus.GaugeValue, float64(v), state)
	}
	ch <- prometheus.MustNewConstMetric(queueDesc, prometheus.GaugeValue, float64(s.QueueDepth))
	ch <- prometheus.MustNewConstMetric(connectionsDesc, prometheus.GaugeValue, float64(s.ConnectionsActive))
	ch <- prometheus.MustNewConstMetric(connectionsTotalDesc, prometheus.CounterValue, float64(s.ConnectionsTotal))
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.ErrorsTotal))
}

// Registry returns a registry holding this collector plus the Go
// runtime and process collectors.  It is created on first use.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return prometheus.NewRegistry()
	}
	c.regOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			c,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		c.registry = reg
	})
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{})
}
