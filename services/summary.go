package services

import (
	"sort"

	"loa-scraper/models"
	"loa-scraper/utils"
)

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

func (s *SummaryService) Generate(records []*models.VolumeRecord) *models.RunSummary {
	report := &models.RunSummary{}
	if len(records) == 0 {
		return report
	}

	report.TotalVolumes = len(records)
	report.FirstVolume = records[0].Number
	report.LastVolume = records[0].Number

	counts := make(map[uint32]int)
	for _, r := range records {
		if r.Author != "" {
			report.WithAuthor++
		} else {
			report.WithoutAuthor++
		}
		if r.AuthorLink != "" {
			report.WithAuthorLink++
		}
		if r.Number < report.FirstVolume {
			report.FirstVolume = r.Number
		}
		if r.Number > report.LastVolume {
			report.LastVolume = r.Number
		}
		counts[r.Number]++
	}

	for n, c := range counts {
		if c > 1 {
			report.DuplicateNumbers = append(report.DuplicateNumbers, n)
		}
	}
	sort.Slice(report.DuplicateNumbers, func(i, j int) bool {
		return report.DuplicateNumbers[i] < report.DuplicateNumbers[j]
	})

	return report
}

// Print logs the report.
func (s *SummaryService) Print(r *models.RunSummary) {
	if r.TotalVolumes == 0 {
		s.logger.Info("[summary] No volumes written")
		return
	}
	s.logger.Info("[summary] Volumes written: %d (volumes %d-%d)", r.TotalVolumes, r.FirstVolume, r.LastVolume)
	s.logger.Info("[summary] With author: %d | without author: %d | with Wikipedia link: %d",
		r.WithAuthor, r.WithoutAuthor, r.WithAuthorLink)
	if len(r.DuplicateNumbers) > 0 {
		s.logger.Warn("[summary] Duplicate volume numbers: %v", r.DuplicateNumbers)
	}
}
