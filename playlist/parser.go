package playlist

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"

	"m3u-curator/logger"
	"m3u-curator/utils"
)

var (
	// attributeRegex matches M3U attributes in the format key="value"
	attributeRegex = regexp.MustCompile(`([a-zA-Z0-9_-]+)="([^"]*)"`)

	// Provider banners and "last update" placeholders posing as channels.
	bannerMarkers = []string{"=== ", "LAST UPDATE", "---"}
)

// Scan yields channels from lines in order of appearance. It keeps no state
// between calls, so it can be ranged over any number of times.
func Scan(lines []string) iter.Seq[*Channel] {
	return func(yield func(*Channel) bool) {
		i := 0
		for i < len(lines) {
			line := strings.TrimSpace(lines[i])
			if !strings.HasPrefix(line, extInfPrefix) {
				i++
				continue
			}

			ch := parseMetadata(line)
			if isBanner(ch.Name) {
				logger.Default.Debugf("Skipping banner entry: %s", ch.Name)
				i += 2
				continue
			}
			if ch.Name == "" {
				logger.Default.Debugf("Entry missing name, skipping: %s", line)
				i++
				continue
			}

			ch.Lines = append(ch.Lines, lines[i])
			j := i + 1
			for j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), vlcOptPrefix) {
				ch.Lines = append(ch.Lines, lines[j])
				j++
			}
			if j < len(lines) {
				next := strings.TrimSpace(lines[j])
				if next != "" && !strings.HasPrefix(next, "#") {
					ch.Lines = append(ch.Lines, lines[j])
					j++
				}
			}
			i = j

			if !yield(ch) {
				return
			}
		}
	}
}

// Parse collects Scan into a slice.
func Parse(lines []string) []*Channel {
	channels := make([]*Channel, 0, len(lines)/2)
	for ch := range Scan(lines) {
		channels = append(channels, ch)
	}
	return channels
}

// ParseReader reads the whole playlist from r and parses it.
func ParseReader(r io.Reader) ([]*Channel, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return Parse(lines), nil
}

// ReadLines splits r into lines, allowing lines up to 1 MiB.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading playlist: %w", err)
	}
	return lines, nil
}

func parseMetadata(line string) *Channel {
	ch := &Channel{}

	lineWithoutPairs := line
	for _, match := range attributeRegex.FindAllStringSubmatch(line, -1) {
		key := strings.TrimSpace(match[1])
		value := match[2]

		switch strings.ToLower(key) {
		case "group-title":
			ch.Group = utils.GroupTitleParser(value)
		case "tvg-logo":
			ch.Logo = utils.TvgLogoParser(value)
		case "tvg-id":
			ch.TvgID = utils.GeneralParser(value)
		case "tvg-name":
			ch.TvgName = utils.TvgNameParser(value)
		case "tvg-chno":
			ch.ChannelNumber = utils.GeneralParser(value)
		case "channel-id":
			ch.ChannelID = utils.GeneralParser(value)
		}
		lineWithoutPairs = strings.Replace(lineWithoutPairs, match[0], "", 1)
	}

	if idx := nameSeparator(lineWithoutPairs); idx >= 0 {
		ch.Name = utils.TvgNameParser(lineWithoutPairs[idx+1:])
	}

	return ch
}

func isBanner(name string) bool {
	for _, marker := range bannerMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
