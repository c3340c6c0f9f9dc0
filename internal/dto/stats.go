package dto

import "strconv"

// StatusCount holds the count and percentage for one task status.
type StatusCount struct {
	Count      int64  `json:"count"`
	Percentage string `json:"percentage"`
}

// StatusBreakdownDTO reports task counts and percentages per status
// keyword, plus counts bucketed by month (YYYY-MM).
type StatusBreakdownDTO struct {
	TotalAssigned int64                       `json:"totalAssigned"`
	Statuses      map[string]StatusCount      `json:"statuses"`
	Monthly       map[string]map[string]int64 `json:"monthly"`
}

// StatisticsDTO is the dashboard summary.
type StatisticsDTO struct {
	TotalDepartments int64 `json:"totalDepartments"`
	CompletedTasks   int64 `json:"completedTasks"`
	TotalMeetings    int64 `json:"totalMeetings"`
	AssignedTasks    int64 `json:"assignedTasks"`
}

// FormatPercentage renders a ratio as "NN.NN%". A zero total yields
// "0.00%" instead of dividing.
func FormatPercentage(count, total int64) string {
	if total == 0 {
		return "0.00%"
	}
	pct := float64(count) / float64(total) * 100
	return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
