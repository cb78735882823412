package media

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	v "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var objectPathPattern = regexp.MustCompile(`^candidates/[A-Za-z0-9-]+/\d{4}/\d{2}/\d{2}/[A-Za-z0-9-]+\.(jpg|jpeg|png|webp)$`)

// ObjectPath is the candidate/date-scoped storage path for a new image.
func ObjectPath(candidateID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("candidates/%s/%04d/%02d/%02d/%s.jpg",
		candidateID, at.Year(), int(at.Month()), at.Day(), uuid.NewString())
}

// ValidateObjectPath rejects anything that is not a path ObjectPath produces.
func ValidateObjectPath(path string) error {
	return v.Validate(path,
		v.Required,
		v.By(func(value interface{}) error {
			if strings.Contains(value.(string), "..") {
				return fmt.Errorf("must not traverse directories")
			}
			return nil
		}),
		v.Match(objectPathPattern).Error("must be a media object path"),
	)
}
