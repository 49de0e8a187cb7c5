package services

import (
	"context"

	"realtor-agents-scraper/models"
	"realtor-agents-scraper/utils"
)

// AgentSearcher fetches the raw agent cards for one zip code.
type AgentSearcher interface {
	SearchAgentsByZip(ctx context.Context, zipCode string, maxRecords *int) []models.RawAgent
}

// Extractor drives the searcher across zip codes and normalizes the results.
type Extractor struct {
	client     AgentSearcher
	normalizer *Normalizer
	logger     *utils.Logger
}

// NewExtractor creates an Extractor. A nil normalizer uses NewNormalizer.
func NewExtractor(client AgentSearcher, normalizer *Normalizer, logger *utils.Logger) *Extractor {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &Extractor{client: client, normalizer: normalizer, logger: logger}
}

// ExtractForZipCodes processes zip codes in order. maxPerZip caps each zip
// code's fetch; trialLimit caps the total record count and may cut a zip
// code's results short. Nil means unbounded.
func (e *Extractor) ExtractForZipCodes(ctx context.Context, zipCodes []string, maxPerZip, trialLimit *int) []models.Agent {
	all := make([]models.Agent, 0)

	remaining := -1
	if trialLimit != nil {
		remaining = *trialLimit
	}

	for _, zip := range zipCodes {
		if trialLimit != nil && remaining <= 0 {
			e.logger.Info("[extractor] Trial limit reached, stopping before zip %s", zip)
			break
		}

		e.logger.Info("[extractor] Processing zip code %s", zip)
		raw := e.client.SearchAgentsByZip(ctx, zip, maxPerZip)

		for _, r := range raw {
			all = append(all, e.normalizer.Normalize(r))
			if trialLimit == nil {
				continue
			}
			remaining--
			if remaining <= 0 {
				e.logger.Info("[extractor] Trial limit reached after zip %s (%d agents total)", zip, len(all))
				return all
			}
		}
	}

	return all
}
