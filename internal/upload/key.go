package upload

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/photoform/internal/shared"
)

// DefaultCategory is the key prefix used for lead form photos.
const DefaultCategory = "quote-uploads"

// fallbackName replaces an empty display name.
const fallbackName = "photo"

// SanitizeName replaces every rune outside [A-Za-z0-9._-] with '_'.
func SanitizeName(name string) string {
	if name == "" {
		return fallbackName
	}
	return strings.Map(func(r rune) rune {
		if shared.IsSafeKeyRune(r) {
			return r
		}
		return '_'
	}, name)
}

// DestinationKey builds {category}/{unixMillis}-{randomHex}-{sanitizedName}.
// The timestamp and random part keep keys unique across clients and across
// repeated uploads of the same name.
func DestinationKey(category string, at time.Time, randomHex, name string) string {
	return fmt.Sprintf("%s/%d-%s-%s", category, at.UnixMilli(), randomHex, SanitizeName(name))
}
