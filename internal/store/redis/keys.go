package redis

import "fmt"

const (
	// KeyPrefixGift is the prefix for gift metadata keys
	KeyPrefixGift = "giftgate:gift:"
	// KeyAllGifts is the key for the set of all mirrored slugs
	KeyAllGifts = "giftgate:gifts:all"
)

// GiftKey returns the Redis key for a gift by slug
func GiftKey(slug string) string {
	return KeyPrefixGift + slug
}

// AllGiftsKey returns the key for the set of all mirrored slugs
func AllGiftsKey() string {
	return KeyAllGifts
}

// ExtractSlug extracts the slug from a gift key
func ExtractSlug(key string) (string, error) {
	if len(key) <= len(KeyPrefixGift) || key[:len(KeyPrefixGift)] != KeyPrefixGift {
		return "", fmt.Errorf("invalid gift key: %s", key)
	}
	return key[len(KeyPrefixGift):], nil
}
