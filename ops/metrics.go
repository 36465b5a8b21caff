package ops

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports a Pool's job statistics as Prometheus gauges, the way
// rclone's fs/accounting package exposes its stats group under
// /metrics. Nil by default; install with Pool.SetMetrics.
type Metrics struct {
	processedBytes prometheus.Gauge
	estimatedBytes prometheus.Gauge
	running        prometheus.Gauge
	pending        prometheus.Gauge
}

// NewMetrics registers the corefs_job_* gauges with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corefs_job_processed_bytes",
			Help: "Bytes processed across all running/pending jobs.",
		}),
		estimatedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corefs_job_estimated_bytes",
			Help: "Bytes estimated across all running/pending jobs.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corefs_pool_running",
			Help: "Number of operations currently running in the pool.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corefs_pool_pending",
			Help: "Number of operations queued in the pool.",
		}),
	}
	reg.MustRegister(m.processedBytes, m.estimatedBytes, m.running, m.pending)
	return m
}

func (m *Metrics) observe(p *Pool) {
	if m == nil {
		return
	}
	p.mu.Lock()
	running, pending := len(p.running), len(p.pending)
	entries := make([]*entry, 0, running+pending)
	entries = append(entries, p.running...)
	entries = append(entries, p.pending...)
	p.mu.Unlock()

	var processed, estimated int64
	for _, e := range entries {
		st := e.op.Job().Stats
		processed += st.Bytes.Processed()
		estimated += st.Bytes.Estimated()
	}
	m.processedBytes.Set(float64(processed))
	m.estimatedBytes.Set(float64(estimated))
	m.running.Set(float64(running))
	m.pending.Set(float64(pending))
}

// SetMetrics installs m on the pool; subsequent Enqueue/onFinish
// transitions refresh the gauges.
func (p *Pool) SetMetrics(m *Metrics) {
	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}
