package didcard

import "github.com/AlexZinkM/did-card/internal/model"

// ComputeStats derives totals and the rounded mean age of verified records
func ComputeStats(records []model.Record) model.Stats {
	var stats model.Stats
	var sum uint64
	for _, r := range records {
		stats.Total++
		if !r.IsVerified {
			continue
		}
		stats.Verified++
		sum += uint64(verifiedAge(r))
	}
	if stats.Verified > 0 {
		// round half up
		n := uint64(stats.Verified)
		stats.AverageAge = int((sum*2 + n) / (2 * n))
	}
	return stats
}

// ComputeAgeBuckets counts verified records into <18, 18-29, 30-49 and 50+
func ComputeAgeBuckets(records []model.Record) model.AgeBuckets {
	var buckets model.AgeBuckets
	for _, r := range records {
		if !r.IsVerified {
			continue
		}
		switch age := verifiedAge(r); {
		case age < 18:
			buckets.Under18++
		case age < 30:
			buckets.From18++
		case age < 50:
			buckets.From30++
		default:
			buckets.Over50++
		}
	}
	return buckets
}

// verifiedAge treats a verified record without a value as age 0
func verifiedAge(r model.Record) uint32 {
	if r.DecryptedValue == nil {
		return 0
	}
	return *r.DecryptedValue
}
