package fragment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SlugPlaceholder is replaced by the gift slug in asset URL templates.
const SlugPlaceholder = "{slug}"

// Profile describes where the gift page keeps the data the parsers read and
// how asset URLs are derived. The compiled-in default matches the public
// gift pages; a YAML file may override any field.
type Profile struct {
	TableSelector string `yaml:"table_selector"` // metadata table
	OwnerLabel    string `yaml:"owner_label"`    // header text of the ownership row
	ImageURL      string `yaml:"image_url"`      // template, must contain {slug}
	AnimationURL  string `yaml:"animation_url"`  // template, must contain {slug}
}

// DefaultProfile returns the profile for t.me / fragment.com gift pages.
func DefaultProfile() Profile {
	return Profile{
		TableSelector: "table.tgme_gift_table",
		OwnerLabel:    "Owner",
		ImageURL:      "https://nft.fragment.com/gift/{slug}.webp",
		AnimationURL:  "https://nft.fragment.com/gift/{slug}.lottie.json",
	}
}

// ImageFor returns the image asset URL for slug.
func (p Profile) ImageFor(slug string) string {
	return strings.ReplaceAll(p.ImageURL, SlugPlaceholder, slug)
}

// AnimationFor returns the Lottie animation URL for slug.
func (p Profile) AnimationFor(slug string) string {
	return strings.ReplaceAll(p.AnimationURL, SlugPlaceholder, slug)
}

func (p Profile) validate() error {
	switch {
	case strings.TrimSpace(p.TableSelector) == "":
		return fmt.Errorf("profile: table_selector is empty")
	case strings.TrimSpace(p.OwnerLabel) == "":
		return fmt.Errorf("profile: owner_label is empty")
	case !strings.Contains(p.ImageURL, SlugPlaceholder):
		return fmt.Errorf("profile: image_url %q has no %s placeholder", p.ImageURL, SlugPlaceholder)
	case !strings.Contains(p.AnimationURL, SlugPlaceholder):
		return fmt.Errorf("profile: animation_url %q has no %s placeholder", p.AnimationURL, SlugPlaceholder)
	}
	return nil
}

// ProfileLoader handles loading of an optional profile override file
type ProfileLoader struct {
	filePath string
}

// NewProfileLoader creates a loader; an empty path yields the default profile.
func NewProfileLoader(filePath string) *ProfileLoader {
	return &ProfileLoader{
		filePath: filePath,
	}
}

// Load reads the profile file on top of the defaults
func (l *ProfileLoader) Load() (Profile, error) {
	profile := DefaultProfile()
	if l.filePath == "" {
		return profile, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile file: %w", err)
	}

	// Fields absent from the file keep their default value.
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile yaml: %w", err)
	}

	if err := profile.validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}
