package utils

import (
	"strings"
)

// GeneralParser trims whitespace and one layer of surrounding quotes from an
// attribute value.
func GeneralParser(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = strings.Trim(value, `"`)
	}

	return value
}

func TvgNameParser(value string) string {
	return GeneralParser(value)
}

func TvgLogoParser(value string) string {
	return GeneralParser(value)
}

func GroupTitleParser(value string) string {
	return GeneralParser(value)
}
