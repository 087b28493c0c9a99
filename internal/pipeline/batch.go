package pipeline

import (
	"time"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// MakeBatches partitions listings into contiguous chunks of size
// batchSize (the last chunk may be smaller), preserving input order.
// Sequence numbers start at 1 and increment per chunk.
func MakeBatches(listings []domain.Listing, batchSize int) []domain.Batch {
	if len(listings) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	now := time.Now().UTC()
	batches := make([]domain.Batch, 0, (len(listings)+batchSize-1)/batchSize)
	for start := 0; start < len(listings); start += batchSize {
		end := min(start+batchSize, len(listings))
		batches = append(batches, domain.Batch{
			Sequence:  len(batches) + 1,
			Listings:  listings[start:end],
			CreatedAt: now,
		})
	}
	return batches
}
