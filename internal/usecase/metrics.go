package usecase

// Metrics receives pipeline outcome counts
type Metrics interface {
	FallbackUsed(stage string)
	RecordsRepaired(n int)
}

type noopMetrics struct{}

func (noopMetrics) FallbackUsed(string) {}
func (noopMetrics) RecordsRepaired(int) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
