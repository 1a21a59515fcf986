package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"m3u-curator/logger"
	"m3u-curator/playlist"
	"m3u-curator/utils"
)

var ErrNoLocation = errors.New("no playlist location configured")

// Fetch returns the raw lines of the playlist at location, which may be a
// local path, a file:// URL or an http(s) URL.
func Fetch(ctx context.Context, location string, client utils.HTTPClient) ([]string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrNoLocation
	}

	if !utils.IsRemote(location) {
		return readLocalFile(strings.TrimPrefix(location, "file://"))
	}
	if client == nil {
		client = utils.DefaultHTTPClient
	}
	return fetchRemote(ctx, location, client)
}

func readLocalFile(localPath string) ([]string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("error opening local file: %w", err)
	}
	defer file.Close()

	return playlist.ReadLines(file)
}

func fetchRemote(ctx context.Context, m3uURL string, client utils.HTTPClient) ([]string, error) {
	req, err := utils.CustomHttpRequest(ctx, http.MethodGet, m3uURL, utils.GetEnv("USER_AGENT"), "")
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	logger.Default.Debugf("Downloading playlist from %s", m3uURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return playlist.ReadLines(resp.Body)
}
