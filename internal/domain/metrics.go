package domain

import "time"

// RequiredOptionalSplit splits one week's task count by requirement flag.
type RequiredOptionalSplit struct {
	Required int
	Optional int
}

// VelocityMetrics is the derived read-only summary of the aggregate. Absent
// data renders as zeros, never as missing fields.
type VelocityMetrics struct {
	CurrentWeekTasks   int
	RequiredVsOptional RequiredOptionalSplit
	DayOfWeekVelocity  DayOfWeekCounts
	TasksPerWeek       []int
}

// Metrics computes the derived summary for the week containing now. The
// per-week history series spans DefaultMetricsWeeks weeks.
func (v *VelocityData) Metrics(now time.Time) VelocityMetrics {
	metrics := VelocityMetrics{
		TasksPerWeek: v.TasksPerWeek(DefaultMetricsWeeks, now),
	}
	if bucket, ok := v.Weeks[WeekKeyOf(now)]; ok {
		metrics.CurrentWeekTasks = bucket.Total
		metrics.RequiredVsOptional = RequiredOptionalSplit{
			Required: bucket.Required,
			Optional: bucket.Optional,
		}
		metrics.DayOfWeekVelocity = bucket.Days
	}
	return metrics
}
