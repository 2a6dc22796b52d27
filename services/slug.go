package services

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[\s_-]+`)
)

// Slugify derives a URL-safe identifier from a display name: lowercase,
// special characters stripped, runs of whitespace/underscores/hyphens
// collapsed to a single hyphen, no leading or trailing hyphens.
// Deterministic and idempotent for already-slug-shaped input.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// UniqueSlug returns Slugify(name), suffixed with -2, -3, ... until the slug
// is free in the given model's table. model must be a GORM model pointer,
// e.g. &models.Compound{}.
func UniqueSlug(db *gorm.DB, model interface{}, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "entry"
	}
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := db.Model(model).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
