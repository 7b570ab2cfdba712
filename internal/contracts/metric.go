package contracts

// Metric is an optional financial value. It distinguishes "the company
// reported zero" from "no data available", which a bare float64 cannot.
// The zero value means missing.
type Metric struct {
	Value     float64 `json:"value"`
	Valid     bool    `json:"valid"`
	Estimated bool    `json:"estimated,omitempty"`
}

// MetricOf returns a reported metric.
func MetricOf(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// EstimatedMetric returns a metric derived from other fields rather
// than reported by the company.
func EstimatedMetric(v float64) Metric {
	return Metric{Value: v, Valid: true, Estimated: true}
}

// Float returns the value, or 0 when missing.
func (m Metric) Float() float64 {
	if !m.Valid {
		return 0
	}
	return m.Value
}

// Or returns the value, or fallback when missing.
func (m Metric) Or(fallback float64) float64 {
	if !m.Valid {
		return fallback
	}
	return m.Value
}

// Positive reports whether the metric is available and greater than zero.
func (m Metric) Positive() bool {
	return m.Valid && m.Value > 0
}
