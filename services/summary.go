package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"realtor-agents-scraper/models"
	"realtor-agents-scraper/utils"
)

const topAgentsCount = 5

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

func (s *SummaryService) Generate(agents []models.Agent) *models.SummaryReport {
	report := &models.SummaryReport{
		AgentsByOffice: make(map[string]int),
	}

	if len(agents) == 0 {
		return report
	}

	report.TotalAgents = len(agents)

	var reviews int
	for _, a := range agents {
		if a.Email != "" {
			report.AgentsWithEmail++
		}
		if a.PhotoURL != nil && *a.PhotoURL != "" {
			report.AgentsWithPhoto++
		}
		report.TotalListings += a.ListingCount
		report.TotalSold += a.SoldCount
		reviews += a.ReviewCount
		if a.OfficeName != "" {
			report.AgentsByOffice[a.OfficeName]++
		}
	}
	report.AverageReviews = round2(float64(reviews) / float64(len(agents)))

	// Top agents by sold count, ties keep input order
	sold := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if a.SoldCount > 0 {
			sold = append(sold, a)
		}
	}
	sort.SliceStable(sold, func(i, j int) bool {
		return sold[i].SoldCount > sold[j].SoldCount
	})
	if len(sold) > topAgentsCount {
		sold = sold[:topAgentsCount]
	}
	report.TopBySold = sold

	s.logger.Debug("[summary] %d agents, %d offices", report.TotalAgents, len(report.AgentsByOffice))
	return report
}

// Print renders the report as tables to w.
func (s *SummaryService) Print(r *models.SummaryReport, w io.Writer) {
	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetTitle("Agent scrape summary")
	overview.AppendRows([]table.Row{
		{"Total agents", r.TotalAgents},
		{"Agents with email", r.AgentsWithEmail},
		{"Agents with photo", r.AgentsWithPhoto},
		{"Total active listings", r.TotalListings},
		{"Total sold", r.TotalSold},
		{"Average reviews", fmt.Sprintf("%.2f", r.AverageReviews)},
	})
	overview.SetStyle(table.StyleRounded)
	overview.Render()

	top := table.NewWriter()
	top.SetOutputMirror(w)
	top.SetTitle("Top agents by sold count")
	top.AppendHeader(table.Row{"#", "Agent", "Office", "Sold", "Listings"})
	if len(r.TopBySold) == 0 {
		top.AppendRow(table.Row{"-", "No sold data", "", "", ""})
	}
	for i, a := range r.TopBySold {
		top.AppendRow(table.Row{i + 1, truncate(a.Name, 38), truncate(a.OfficeName, 28), a.SoldCount, a.ListingCount})
	}
	top.SetStyle(table.StyleRounded)
	top.Render()

	if len(r.AgentsByOffice) == 0 {
		return
	}

	type officeCount struct {
		office string
		count  int
	}
	offices := make([]officeCount, 0, len(r.AgentsByOffice))
	for office, cnt := range r.AgentsByOffice {
		offices = append(offices, officeCount{office, cnt})
	}
	sort.Slice(offices, func(i, j int) bool {
		if offices[i].count != offices[j].count {
			return offices[i].count > offices[j].count
		}
		return offices[i].office < offices[j].office
	})

	byOffice := table.NewWriter()
	byOffice.SetOutputMirror(w)
	byOffice.SetTitle("Agents by office")
	byOffice.AppendHeader(table.Row{"Office", "Agents"})
	for _, oc := range offices {
		byOffice.AppendRow(table.Row{truncate(oc.office, 40), oc.count})
	}
	byOffice.SetStyle(table.StyleRounded)
	byOffice.Render()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
