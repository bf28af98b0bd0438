package game

import (
	"math"
	"sort"
)

// AggregateEntry is one row of the final leaderboard.
type AggregateEntry struct {
	ItemID       ItemID  `json:"itemId"`
	Text         string  `json:"text"`
	Emoji        string  `json:"emoji"`
	TotalPoints  int     `json:"totalPoints"`
	AverageRank  float64 `json:"averageRank"`
	Rank         int     `json:"rank"`
	RankingCount int     `json:"rankingCount"`
}

// Aggregate computes the leaderboard over all players' rankings. A rank of r
// is worth itemsPerGame+1-r points; an unranked item contributes nothing.
// Items are ordered by total points descending, then average rank ascending,
// then submission order, and assigned final ranks 1..N in that order.
func Aggregate(players []*Player, items []*Item, itemsPerGame int) []AggregateEntry {
	if len(items) == 0 {
		return nil
	}
	entries := make([]AggregateEntry, 0, len(items))
	for _, item := range items {
		points, sum, count := 0, 0, 0
		for _, p := range players {
			if rank, ok := p.Rankings[item.ID]; ok {
				points += itemsPerGame + 1 - rank
				sum += rank
				count++
			}
		}
		// AverageRank stays 0 for an unranked item; JSON has no +Inf.
		avg := 0.0
		if count > 0 {
			avg = float64(sum) / float64(count)
		}
		entries = append(entries, AggregateEntry{
			ItemID:       item.ID,
			Text:         item.Text,
			Emoji:        item.Emoji,
			TotalPoints:  points,
			AverageRank:  avg,
			RankingCount: count,
		})
	}
	// Stable sort preserves submission order among full ties. An item nobody
	// ranked sorts behind every ranked item with the same point total.
	avgKey := func(e AggregateEntry) float64 {
		if e.RankingCount == 0 {
			return math.Inf(1)
		}
		return e.AverageRank
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return avgKey(entries[i]) < avgKey(entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
