package db

import (
	"sort"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// TierShare is one row of the risk distribution.
type TierShare struct {
	Tier    risk.Tier `json:"tier"`
	Count   int64     `json:"count"`
	Percent *float64  `json:"percent,omitempty"`
}

// Statistics summarizes the stored observations. Means and percentages are
// nil when the store is empty.
type Statistics struct {
	Total        int64       `json:"total"`
	MeanDiarrhea *float64    `json:"mean_diarrhea,omitempty"`
	MeanFever    *float64    `json:"mean_fever,omitempty"`
	Distribution []TierShare `json:"distribution"`
}

// tierGroup is the per-tier aggregate every backend produces.
type tierGroup struct {
	Tier        risk.Tier
	Count       int64
	SumDiarrhea int64
	SumFever    int64
}

func newStatistics(groups []tierGroup) Statistics {
	var total, sumDiarrhea, sumFever int64
	counts := make(map[risk.Tier]int64, len(groups))
	for _, g := range groups {
		total += g.Count
		sumDiarrhea += g.SumDiarrhea
		sumFever += g.SumFever
		counts[g.Tier] += g.Count
	}

	stats := Statistics{Total: total, Distribution: make([]TierShare, 0, len(counts)+3)}
	if total > 0 {
		md := float64(sumDiarrhea) / float64(total)
		mf := float64(sumFever) / float64(total)
		stats.MeanDiarrhea = &md
		stats.MeanFever = &mf
	}

	share := func(tier risk.Tier, count int64) TierShare {
		s := TierShare{Tier: tier, Count: count}
		if total > 0 {
			p := float64(count) / float64(total) * 100
			s.Percent = &p
		}
		return s
	}

	for _, tier := range risk.Tiers() {
		stats.Distribution = append(stats.Distribution, share(tier, counts[tier]))
		delete(counts, tier)
	}

	// Rows written by older tools may carry tiers outside the current set.
	legacy := make([]risk.Tier, 0, len(counts))
	for tier := range counts {
		legacy = append(legacy, tier)
	}
	sort.Slice(legacy, func(i, j int) bool { return legacy[i] < legacy[j] })
	for _, tier := range legacy {
		stats.Distribution = append(stats.Distribution, share(tier, counts[tier]))
	}

	return stats
}
