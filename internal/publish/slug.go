package publish

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/creatorstation/editorial/internal/textnorm"
)

const (
	maxSlugBase     = 80
	maxSlugAttempts = 50
)

// SlugChecker reports whether a slug is already taken.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Slugify folds diacritics, keeps ASCII letters and digits, and joins words
// with hyphens, cut at a word boundary.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range textnorm.Fold(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugBase {
		slug = slug[:maxSlugBase]
		if idx := strings.LastIndexByte(slug, '-'); idx > maxSlugBase/2 {
			slug = slug[:idx]
		}
		slug = strings.Trim(slug, "-")
	}
	if slug == "" {
		slug = "editorial"
	}
	return slug
}

// UniqueSlug is Slugify plus a date suffix, with -2, -3... when taken.
func UniqueSlug(ctx context.Context, checker SlugChecker, title string, day time.Time) (string, error) {
	base := Slugify(title) + "-" + day.UTC().Format("2006-01-02")
	for i := 1; i <= maxSlugAttempts; i++ {
		slug := base
		if i > 1 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := checker.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}
