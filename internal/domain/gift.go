package domain

import "strings"

// Gift is the descriptive metadata of one collectible as published on its
// public page. A Gift is never mutated after construction: the first
// successful parse for a slug is authoritative for the process lifetime.
type Gift struct {
	// Slug is the last path segment of the gift's canonical URL.
	// Example: Desk-123
	Slug string `json:"slug"`

	// Title is the part of Slug before the first "-".
	// Example: Desk
	Title string `json:"title"`

	Model          string  `json:"model"`
	ModelRarity    float64 `json:"model_rarity"`
	Backdrop       string  `json:"backdrop"`
	BackdropRarity float64 `json:"backdrop_rarity"`
	Symbol         string  `json:"symbol"`
	SymbolRarity   float64 `json:"symbol_rarity"`

	// ImageURL and AnimationURL are templated from Slug and never fetched.
	ImageURL     string `json:"imgUrl"`
	AnimationURL string `json:"animUrl"`
}

// TitleFromSlug returns the prefix of slug before its first "-".
func TitleFromSlug(slug string) string {
	title, _, _ := strings.Cut(slug, "-")
	return title
}
