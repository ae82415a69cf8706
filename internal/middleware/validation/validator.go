package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	maxUsernameLength = 64
	maxDatasetLength  = 128
)

// Usernames and dataset names become cold-storage keys and cache
// filenames, so the charset stays conservative.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Username normalizes and validates a username path parameter. The
// ingestion side lowercases usernames at registration; accepting mixed
// case here and folding keeps both sides joining on the same keys.
func Username(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" || len(name) > maxUsernameLength {
		return "", false
	}
	return name, namePattern.MatchString(name)
}

// DatasetName validates a dataset (stock/topic) name path parameter.
func DatasetName(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" || len(name) > maxDatasetLength {
		return "", false
	}
	return name, namePattern.MatchString(name)
}

// Date validates an optional YYYY-MM-DD query parameter. The value
// becomes part of a cold-storage key, so it must be a real calendar
// date, not just date-shaped.
func Date(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", false
	}
	return raw, true
}

// BadRequest renders the standard invalid-parameter response.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"InvalidInput": msg,
	})
}
