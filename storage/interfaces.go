package storage

import "realtor-agents-scraper/models"

// AgentWriter is the interface any output backend must satisfy.
type AgentWriter interface {
	Write(agents []models.Agent) error
	Close() error
}

// AgentReader is implemented by backends that can read back what they stored.
type AgentReader interface {
	FetchAll() ([]models.Agent, error)
}
