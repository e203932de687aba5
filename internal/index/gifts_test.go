package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

func stubParse(markup, slug string) (*domain.Gift, error) {
	if markup == "" {
		return nil, domain.NewError(domain.KindNotFound, "no metadata table")
	}
	return &domain.Gift{Slug: slug, Title: domain.TitleFromSlug(slug), Model: markup}, nil
}

type fakeMirror struct {
	mu      sync.Mutex
	gifts   map[string]*domain.Gift
	getErr  error
	saveErr error
	saves   int
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{gifts: make(map[string]*domain.Gift)}
}

func (m *fakeMirror) GetGift(_ context.Context, slug string) (*domain.Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.gifts[slug], nil
}

func (m *fakeMirror) SaveGift(_ context.Context, gift *domain.Gift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.gifts[gift.Slug] = gift
	return nil
}

func TestGetOrCreateCachesFirstParse(t *testing.T) {
	idx := NewGiftIndex(stubParse, nil, logger.Nop())
	calls := 0
	provider := func() (string, error) {
		calls++
		return "Golden", nil
	}

	first, err := idx.GetOrCreate(context.Background(), "Desk-123", provider)
	require.NoError(t, err)
	second, err := idx.GetOrCreate(context.Background(), "Desk-123", func() (string, error) {
		t.Fatal("provider must not run on a hit")
		return "", nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.Equal(t, "Desk", first.Title)
	assert.Equal(t, 1, idx.Count())
}

func TestGetOrCreateSingleFetchUnderConcurrency(t *testing.T) {
	idx := NewGiftIndex(stubParse, nil, logger.Nop())

	var calls atomic.Int32
	release := make(chan struct{})
	provider := func() (string, error) {
		calls.Add(1)
		<-release
		return "Golden", nil
	}

	const n = 32
	results := make([]*domain.Gift, n)
	var started, done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	for i := range n {
		go func(i int) {
			defer done.Done()
			started.Done()
			gift, err := idx.GetOrCreate(context.Background(), "Desk-123", provider)
			assert.NoError(t, err)
			results[i] = gift
		}(i)
	}
	started.Wait()
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestGetOrCreateDoesNotCacheFailures(t *testing.T) {
	idx := NewGiftIndex(stubParse, nil, logger.Nop())

	_, err := idx.GetOrCreate(context.Background(), "Desk-1", func() (string, error) {
		return "", domain.NewError(domain.KindFetch, "unexpected status 502")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))

	_, err = idx.GetOrCreate(context.Background(), "Desk-1", func() (string, error) { return "", nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "parser error passes through unchanged")

	gift, err := idx.GetOrCreate(context.Background(), "Desk-1", func() (string, error) { return "Golden", nil })
	require.NoError(t, err)
	assert.Equal(t, "Golden", gift.Model)
}

func TestGetOrCreateUsesMirror(t *testing.T) {
	mirror := newFakeMirror()
	mirror.gifts["Desk-5"] = &domain.Gift{Slug: "Desk-5", Model: "Mirrored"}
	idx := NewGiftIndex(stubParse, mirror, logger.Nop())

	gift, err := idx.GetOrCreate(context.Background(), "Desk-5", func() (string, error) {
		t.Fatal("provider must not run when the mirror has the gift")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Mirrored", gift.Model)

	cached, ok := idx.Lookup("Desk-5")
	require.True(t, ok)
	assert.Same(t, gift, cached)
}

func TestGetOrCreateWritesBackToMirror(t *testing.T) {
	mirror := newFakeMirror()
	idx := NewGiftIndex(stubParse, mirror, logger.Nop())

	_, err := idx.GetOrCreate(context.Background(), "Desk-6", func() (string, error) { return "Golden", nil })
	require.NoError(t, err)

	assert.Equal(t, 1, mirror.saves)
	assert.Equal(t, "Golden", mirror.gifts["Desk-6"].Model)
}

func TestGetOrCreateIgnoresMirrorFailures(t *testing.T) {
	mirror := newFakeMirror()
	mirror.getErr = errors.New("connection reset")
	mirror.saveErr = errors.New("connection reset")
	idx := NewGiftIndex(stubParse, mirror, logger.Nop())

	gift, err := idx.GetOrCreate(context.Background(), "Desk-7", func() (string, error) { return "Golden", nil })
	require.NoError(t, err)
	assert.Equal(t, "Golden", gift.Model)
}

func TestGetOrCreateIgnoresCanceledCaller(t *testing.T) {
	idx := NewGiftIndex(stubParse, newFakeMirror(), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gift, err := idx.GetOrCreate(ctx, "Desk-8", func() (string, error) { return "Golden", nil })
	require.NoError(t, err)
	assert.Equal(t, "Desk-8", gift.Slug)
}

func TestWarmKeepsExistingEntries(t *testing.T) {
	idx := NewGiftIndex(stubParse, nil, logger.Nop())
	original, err := idx.GetOrCreate(context.Background(), "Desk-1", func() (string, error) { return "Golden", nil })
	require.NoError(t, err)

	added := idx.Warm([]*domain.Gift{
		{Slug: "Desk-1", Model: "Replacement"},
		{Slug: "Desk-2", Model: "Blue"},
		{Slug: ""},
		nil,
	})

	assert.Equal(t, 1, added)
	assert.Equal(t, 2, idx.Count())
	current, _ := idx.Lookup("Desk-1")
	assert.Same(t, original, current)
}
