package playlist

import (
	"strings"
)

const (
	extInfPrefix  = "#EXTINF:"
	vlcOptPrefix  = "#EXTVLCOPT:"
	headerLine    = "#EXTM3U"
	Uncategorized = "Uncategorized"
)

// Channel is one playlist entry. Lines holds the raw text exactly as read:
// the #EXTINF line, any #EXTVLCOPT lines, then the URI when there is one.
type Channel struct {
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Lines    []string `json:"lines"`
	Selected bool     `json:"selected"`

	Logo          string `json:"tvg_logo,omitempty"`
	TvgID         string `json:"tvg_id,omitempty"`
	TvgName       string `json:"tvg_name,omitempty"`
	ChannelNumber string `json:"tvg_chno,omitempty"`
	ChannelID     string `json:"channel_id,omitempty"`
}

// URL returns the playable URI, or "" when the entry has none. The URI is the
// last non-blank line; a trailing comment line means there is no URI.
func (c *Channel) URL() string {
	for i := len(c.Lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(c.Lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return ""
		}
		return line
	}
	return ""
}

func (c *Channel) GroupOrDefault() string {
	if c.Group == "" {
		return Uncategorized
	}
	return c.Group
}

// Options returns the #EXTVLCOPT lines in their original order.
func (c *Channel) Options() []string {
	var opts []string
	for _, line := range c.Lines {
		if strings.HasPrefix(strings.TrimSpace(line), vlcOptPrefix) {
			opts = append(opts, line)
		}
	}
	return opts
}

// Rename sets Name and rewrites the display name carried by the #EXTINF line.
func (c *Channel) Rename(name string) {
	c.Name = name
	if len(c.Lines) == 0 {
		return
	}
	line := c.Lines[0]
	idx := nameSeparator(line)
	if idx < 0 {
		return
	}
	c.Lines[0] = line[:idx+1] + name
}

// nameSeparator finds the comma that starts the display name: the first comma
// outside a quoted attribute value. Returns -1 when there is none.
func nameSeparator(line string) int {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}
