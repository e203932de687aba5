package index

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
)

func TestLedgerAddAssignsIdentity(t *testing.T) {
	l := NewLedger()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	gift := &domain.Gift{Slug: "Desk-123"}
	listing := l.Add(gift, 555, 12.5)

	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, fixed, listing.ListedAt)
	assert.Same(t, gift, listing.Gift, "listings share the gift, they do not copy it")
	assert.Equal(t, int64(555), listing.SellerID)
	assert.Equal(t, 12.5, listing.Price)
}

func TestLedgerKeepsInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.Add(&domain.Gift{Slug: "A-1"}, 1, 1)
	l.Add(&domain.Gift{Slug: "B-2"}, 2, 2)
	l.Add(&domain.Gift{Slug: "C-3"}, 3, 3)

	list := l.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A-1", list[0].Gift.Slug)
	assert.Equal(t, "B-2", list[1].Gift.Slug)
	assert.Equal(t, "C-3", list[2].Gift.Slug)
}

func TestLedgerRoundTrip(t *testing.T) {
	l := NewLedger()
	l.Add(&domain.Gift{Slug: "Other-1"}, 7, 1)
	before := l.Count()

	l.Add(&domain.Gift{Slug: "Desk-123"}, 555, 10)
	require.NoError(t, l.Remove("Desk-123", 555))

	assert.Equal(t, before, l.Count())
}

func TestLedgerRemoveMissing(t *testing.T) {
	l := NewLedger()
	l.Add(&domain.Gift{Slug: "Desk-123"}, 555, 10)
	snapshot := l.List()

	tests := []struct {
		name   string
		slug   string
		seller int64
	}{
		{"unknown slug", "Desk-999", 555},
		{"other seller", "Desk-123", 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Remove(tt.slug, tt.seller)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNotFound))
			assert.Equal(t, snapshot, l.List())
		})
	}
}

func TestLedgerRemoveDeletesFirstMatchOnly(t *testing.T) {
	l := NewLedger()
	first := l.Add(&domain.Gift{Slug: "Desk-123"}, 555, 10)
	second := l.Add(&domain.Gift{Slug: "Desk-123"}, 555, 20)

	require.NoError(t, l.Remove("Desk-123", 555))

	list := l.List()
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
	assert.NotEqual(t, first.ID, list[0].ID)
}

func TestLedgerSnapshotIsStable(t *testing.T) {
	l := NewLedger()
	l.Add(&domain.Gift{Slug: "A-1"}, 1, 1)
	l.Add(&domain.Gift{Slug: "B-2"}, 2, 2)

	snapshot := l.List()
	require.NoError(t, l.Remove("A-1", 1))

	require.Len(t, snapshot, 2)
	assert.Equal(t, "A-1", snapshot[0].Gift.Slug)
	assert.Equal(t, "B-2", snapshot[1].Gift.Slug)
}

func TestLedgerConcurrentMutation(t *testing.T) {
	l := NewLedger()
	const n = 100

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Add(&domain.Gift{Slug: "Desk-1"}, int64(i), float64(i))
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, l.Count())

	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Remove("Desk-1", int64(i)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, l.Count())
}
