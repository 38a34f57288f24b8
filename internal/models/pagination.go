package models

// Page is a generic paginated response body
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// ActivityLogPage adds per-action counts to a page of audit entries
type ActivityLogPage struct {
	Page[*ActivityLog]
	Counts []ActionCount `json:"counts"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalUsers     int64                 `json:"totalUsers"`
	PendingUsers   int64                 `json:"pendingUsers"`
	TotalProducts  int64                 `json:"totalProducts"`
	OrdersByStatus map[OrderStatus]int64 `json:"ordersByStatus"`
}
