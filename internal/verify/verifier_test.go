package verify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/index"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/sources/fragment"
)

const deskPage = `<html><body>
<table class="tgme_gift_table">
  <tr><th>Owner</th><td><a href="https://t.me/alice">Alice</a></td></tr>
  <tr><th>Model</th><td>Golden <mark>5%</mark></td></tr>
  <tr><th>Backdrop</th><td>Blue <mark>2.3%</mark></td></tr>
  <tr><th>Symbol</th><td>Star <mark>0.1%</mark></td></tr>
</table>
</body></html>`

const hiddenPage = `<html><body>
<table class="tgme_gift_table">
  <tr><th>Model</th><td>Golden <mark>5%</mark></td></tr>
  <tr><th>Backdrop</th><td>Blue <mark>2.3%</mark></td></tr>
  <tr><th>Symbol</th><td>Star <mark>0.1%</mark></td></tr>
</table>
</body></html>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.err != nil {
		return "", f.err
	}
	page, ok := f.pages[url]
	if !ok {
		return "<html><body>Gift not found</body></html>", nil
	}
	return page, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeIdentity map[string]int64

func (f fakeIdentity) LookupID(_ context.Context, handle string) (int64, error) {
	id, ok := f[handle]
	if !ok {
		return 0, domain.NewError(domain.KindIdentityLookup, "unknown handle %s", handle)
	}
	return id, nil
}

func newTestVerifier(fetcher PageFetcher, ids fakeIdentity, hosts ...string) *Verifier {
	profile := fragment.DefaultProfile()
	gifts := index.NewGiftIndex(func(markup, slug string) (*domain.Gift, error) {
		return fragment.ParseGift(markup, slug, profile)
	}, nil, logger.Nop())
	owners := NewOwnerResolver(fetcher, ids, profile)
	return NewVerifier(gifts, fetcher, owners, hosts, logger.Nop())
}

func TestVerifyOwned(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}}
	v := newTestVerifier(fetcher, fakeIdentity{"alice": 555}, "fragment.com")

	gift, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: "fragment.com/gift/Desk-123", ClaimedOwnerID: 555})
	require.NoError(t, err)

	assert.Equal(t, &domain.Gift{
		Slug:           "Desk-123",
		Title:          "Desk",
		Model:          "Golden",
		ModelRarity:    5,
		Backdrop:       "Blue",
		BackdropRarity: 2.3,
		Symbol:         "Star",
		SymbolRarity:   0.1,
		ImageURL:       "https://nft.fragment.com/gift/Desk-123.webp",
		AnimationURL:   "https://nft.fragment.com/gift/Desk-123.lottie.json",
	}, gift)
}

func TestVerifyNotOwner(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}}
	v := newTestVerifier(fetcher, fakeIdentity{"alice": 999})

	for _, claimed := range []int64{555, 1, -999, 9990} {
		_, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: "fragment.com/gift/Desk-123", ClaimedOwnerID: claimed})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotOwner), "claimed %d: got %v", claimed, err)
	}
}

func TestVerifyChannelOwnerIsNeverOwned(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}}
	// alice resolves to a channel; channel ids come back in marked form.
	const channelID = -1000000000555
	v := newTestVerifier(fetcher, fakeIdentity{"alice": channelID})

	for _, claimed := range []int64{555, channelID} {
		_, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: "fragment.com/gift/Desk-123", ClaimedOwnerID: claimed})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotOwner), "claimed %d: got %v", claimed, err)
	}
}

func TestVerifyHiddenTakesPrecedence(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": hiddenPage}}
	v := newTestVerifier(fetcher, fakeIdentity{"alice": 555})

	_, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: "https://fragment.com/gift/Desk-123", ClaimedOwnerID: 555})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrHidden), "got %v", err)
}

func TestVerifyErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		fetcher *fakeFetcher
		ids     fakeIdentity
		hosts   []string
		want    error
	}{
		{
			name:    "empty slug",
			url:     "fragment.com/gift/",
			fetcher: &fakeFetcher{},
			want:    domain.ErrInvalidURL,
		},
		{
			name:    "empty url",
			url:     "",
			fetcher: &fakeFetcher{},
			want:    domain.ErrInvalidURL,
		},
		{
			name:    "host not allowed",
			url:     "evil.example/gift/Desk-123",
			fetcher: &fakeFetcher{},
			hosts:   []string{"t.me", "fragment.com"},
			want:    domain.ErrInvalidURL,
		},
		{
			name:    "no metadata table",
			url:     "fragment.com/gift/Nope-1",
			fetcher: &fakeFetcher{},
			want:    domain.ErrNotFound,
		},
		{
			name:    "fetch failure",
			url:     "fragment.com/gift/Desk-123",
			fetcher: &fakeFetcher{err: domain.NewError(domain.KindFetch, "unexpected status 502")},
			want:    domain.ErrFetch,
		},
		{
			name:    "unknown owner handle",
			url:     "fragment.com/gift/Desk-123",
			fetcher: &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}},
			ids:     fakeIdentity{},
			want:    domain.ErrIdentityLookup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(tt.fetcher, tt.ids, tt.hosts...)
			_, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: tt.url, ClaimedOwnerID: 555})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "want %v, got %v", tt.want, err)
		})
	}
}

func TestVerifyRejectedHostIsNeverFetched(t *testing.T) {
	fetcher := &fakeFetcher{}
	v := newTestVerifier(fetcher, fakeIdentity{}, "fragment.com")

	_, err := v.Verify(context.Background(), domain.OwnershipClaim{URL: "https://notfragment.com/gift/Desk-123", ClaimedOwnerID: 1})
	require.Error(t, err)
	assert.Equal(t, 0, fetcher.count())
}

func TestVerifyCacheStability(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}}
	v := newTestVerifier(fetcher, fakeIdentity{"alice": 555})
	claim := domain.OwnershipClaim{URL: "fragment.com/gift/Desk-123", ClaimedOwnerID: 555}

	first, err := v.Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count(), "metadata fetch plus live owner fetch")

	for range 3 {
		gift, err := v.Verify(context.Background(), claim)
		require.NoError(t, err)
		assert.Same(t, first, gift)
	}
	assert.Equal(t, 5, fetcher.count(), "only the owner fetch repeats")
}

func TestVerifyOwnershipIsAlwaysLive(t *testing.T) {
	url := "https://fragment.com/gift/Desk-123"
	fetcher := &fakeFetcher{pages: map[string]string{url: deskPage}}
	v := newTestVerifier(fetcher, fakeIdentity{"alice": 555})
	claim := domain.OwnershipClaim{URL: url, ClaimedOwnerID: 555}

	_, err := v.Verify(context.Background(), claim)
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.pages[url] = hiddenPage
	fetcher.mu.Unlock()

	_, err = v.Verify(context.Background(), claim)
	assert.True(t, errors.Is(err, domain.ErrHidden), "got %v", err)
}

func TestVerifyIgnoresCanceledContext(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://fragment.com/gift/Desk-123": deskPage}}
	ids := ctxCheckingIdentity{id: 555}
	profile := fragment.DefaultProfile()
	gifts := index.NewGiftIndex(func(markup, slug string) (*domain.Gift, error) {
		return fragment.ParseGift(markup, slug, profile)
	}, nil, logger.Nop())
	v := NewVerifier(gifts, fetcher, NewOwnerResolver(fetcher, ids, profile), nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, domain.OwnershipClaim{URL: "fragment.com/gift/Desk-123", ClaimedOwnerID: 555})
	assert.NoError(t, err)
}

type ctxCheckingIdentity struct{ id int64 }

func (c ctxCheckingIdentity) LookupID(ctx context.Context, _ string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.WrapError(domain.KindIdentityLookup, err, "canceled")
	}
	return c.id, nil
}
