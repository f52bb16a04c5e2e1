package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	BranchFollowUp = "follow_up"
	BranchSQL      = "sql"
	BranchAnswer   = "answer"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdesk_queries_total",
			Help: "Total number of processed questions by orchestration branch.",
		},
		[]string{"branch"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdesk_llm_request_duration_seconds",
			Help:    "Chat completion round-trip latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)
	sqlExecDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdesk_sql_exec_duration_seconds",
			Help:    "Generated SQL execution latency against the employee database.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(queriesTotal, llmRequestDurationSeconds, sqlExecDurationSeconds)
}

func IncrementQueryBranch(branch string) {
	queriesTotal.WithLabelValues(branch).Inc()
}

func ObserveLLMRequest(elapsed time.Duration, ok bool) {
	llmRequestDurationSeconds.WithLabelValues(outcomeLabel(ok)).Observe(elapsed.Seconds())
}

func ObserveSQLExecution(elapsed time.Duration, ok bool) {
	sqlExecDurationSeconds.WithLabelValues(outcomeLabel(ok)).Observe(elapsed.Seconds())
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
