package user

// Stats are the platform wide counters.
type Stats struct {
	TotalExchanges  int `json:"totalExchanges"`
	TotalTrades     int `json:"totalTrades"`
	TotalUsers      int `json:"totalUsers"`
	ActiveExchanges int `json:"activeExchanges"`
}
