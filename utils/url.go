package utils

import (
	"net/url"
	"path"
	"strings"
)

// FileExtension returns the extension of the URL path, ignoring any query.
func FileExtension(rawUrl string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawUrl))
	if err != nil {
		return "", err
	}
	return path.Ext(u.Path), nil
}

// IsHLSPath reports whether the URL path ends in .m3u8.
func IsHLSPath(rawUrl string) bool {
	ext, err := FileExtension(rawUrl)
	if err != nil {
		return strings.HasSuffix(strings.ToLower(strings.TrimSpace(rawUrl)), ".m3u8")
	}
	return strings.EqualFold(ext, ".m3u8")
}

func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
