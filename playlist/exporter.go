package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/bytebufferpool"
)

var ErrNothingToExport = errors.New("no channels selected for export")

// Export serializes the selected channels. It returns ErrNothingToExport when
// none are selected rather than producing a header-only playlist.
func Export(channels []*Channel) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(headerLine)
	_ = buf.WriteByte('\n')

	exported := 0
	for _, ch := range channels {
		if ch == nil || !ch.Selected {
			continue
		}
		writeEntry(buf, ch)
		exported++
	}

	if exported == 0 {
		return nil, ErrNothingToExport
	}
	return append([]byte(nil), buf.B...), nil
}

// CountSelected is the number of channels Export would write.
func CountSelected(channels []*Channel) int {
	n := 0
	for _, ch := range channels {
		if ch != nil && ch.Selected {
			n++
		}
	}
	return n
}

func writeEntry(buf *bytebufferpool.ByteBuffer, ch *Channel) {
	extInfTags := []string{"#EXTINF:-1"}

	if ch.ChannelID != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("channel-id=\"%s\"", ch.ChannelID))
	}
	if ch.TvgID != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("tvg-id=\"%s\"", ch.TvgID))
	}
	if ch.ChannelNumber != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("tvg-chno=\"%s\"", ch.ChannelNumber))
	}
	if ch.TvgName != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("tvg-name=\"%s\"", ch.TvgName))
	}
	if ch.Logo != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("tvg-logo=\"%s\"", ch.Logo))
	}
	if ch.Group != "" {
		extInfTags = append(extInfTags, fmt.Sprintf("group-title=\"%s\"", ch.Group))
	}

	_, _ = fmt.Fprintf(buf, "%s,%s\n", strings.Join(extInfTags, " "), ch.Name)
	for _, opt := range ch.Options() {
		_, _ = buf.WriteString(opt)
		_ = buf.WriteByte('\n')
	}
	if uri := ch.URL(); uri != "" {
		_, _ = buf.WriteString(uri)
		_ = buf.WriteByte('\n')
	}
}

// WriteFile exports channels to path, replacing any previous file only once
// the new content is fully written.
func WriteFile(path string, channels []*Channel) (int, error) {
	data, err := Export(channels)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return 0, fmt.Errorf("error creating directories: %w", err)
	}

	tmpPath := path + ".new"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("error writing playlist: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("error moving playlist into place: %w", err)
	}

	return CountSelected(channels), nil
}
