package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenmarket/listing-herald/internal/pipeline"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

func nListings(n int) []domain.Listing {
	out := make([]domain.Listing, 0, n)
	for i := range n {
		out = append(out, listing(string(rune('a'+i)), domain.StatusActive))
	}
	return out
}

func TestMakeBatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		n         int
		batchSize int
		wantSizes []int
	}{
		{name: "exact multiple", n: 10, batchSize: 5, wantSizes: []int{5, 5}},
		{name: "remainder in last batch", n: 7, batchSize: 5, wantSizes: []int{5, 2}},
		{name: "fewer than one batch", n: 3, batchSize: 5, wantSizes: []int{3}},
		{name: "single listing", n: 1, batchSize: 5, wantSizes: []int{1}},
		{name: "batch size one", n: 3, batchSize: 1, wantSizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := nListings(tt.n)
			batches := pipeline.MakeBatches(input, tt.batchSize)
			require.Len(t, batches, len(tt.wantSizes))

			var concat []domain.Listing
			for i, b := range batches {
				assert.Equal(t, i+1, b.Sequence)
				assert.Len(t, b.Listings, tt.wantSizes[i])
				concat = append(concat, b.Listings...)
			}
			// concatenation of batch contents equals the original input
			assert.Equal(t, input, concat)
		})
	}
}

func TestMakeBatchesEmpty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, pipeline.MakeBatches(nil, 5))
}

func TestMakeBatchesClampsBatchSize(t *testing.T) {
	t.Parallel()

	batches := pipeline.MakeBatches(nListings(2), 0)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Listings, 1)
}
