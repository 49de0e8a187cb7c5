package models

// SummaryReport holds aggregate figures over an extracted agent set.
type SummaryReport struct {
	TotalAgents     int
	AgentsWithEmail int
	AgentsWithPhoto int
	TotalListings   int
	TotalSold       int
	AverageReviews  float64
	TopBySold       []Agent
	AgentsByOffice  map[string]int
}
