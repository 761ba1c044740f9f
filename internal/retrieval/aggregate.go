package retrieval

import "github.com/hoangv97/memorychat/internal/models"

// Aggregate collapses ranked matches to one document per source. The first (highest ranked)
// match of a source supplies its text; sources keep first-seen order.
func Aggregate(matches []*models.Match) *models.Aggregation {
	agg := &models.Aggregation{Sources: []string{}, Documents: []*models.AggregatedDocument{}}
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if m == nil {
			continue
		}
		url := m.Metadata.SourceURL
		if seen[url] {
			continue
		}
		seen[url] = true
		agg.Sources = append(agg.Sources, url)
		agg.Documents = append(agg.Documents, &models.AggregatedDocument{
			SourceURL: url,
			Text:      m.Metadata.FullText,
		})
	}
	return agg
}
