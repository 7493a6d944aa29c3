package epg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bittles/teamarr/app/cfg"
)

const xmltvTimeLayout = "20060102150405 -0700"

// Serializer renders channels and programmes as an XMLTV document. The
// document is built by hand so element order and formatting stay fixed and
// byte-stable for identical input.
type Serializer struct {
	loc *time.Location
}

func NewSerializer(loc *time.Location) *Serializer {
	if loc == nil {
		loc = time.UTC
	}
	return &Serializer{loc: loc}
}

// Run renders the full document. Channels are emitted first, then programmes
// ordered by channel id and start time. Programme children follow the fixed
// XMLTV order: title, sub-title, desc, category, new.
func (s *Serializer) Run(channels []Channel, programmes []ProgrammeEntry) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<!DOCTYPE tv SYSTEM "xmltv.dtd">`)
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf(`<tv generator-info-name="teamarr/%s">`, cfg.Get().Version))
	buf.WriteString("\n")

	ordered := make([]Channel, len(channels))
	copy(ordered, channels)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, channel := range ordered {
		s.writeChannel(&buf, channel)
	}

	sorted := make([]ProgrammeEntry, len(programmes))
	copy(sorted, programmes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ChannelID != sorted[j].ChannelID {
			return sorted[i].ChannelID < sorted[j].ChannelID
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})
	for _, programme := range sorted {
		s.writeProgramme(&buf, programme)
	}

	buf.WriteString("</tv>\n")

	return buf.String()
}

func (s *Serializer) writeChannel(buf *bytes.Buffer, channel Channel) {
	buf.WriteString(fmt.Sprintf("  <channel id=\"%s\">\n", html.EscapeString(channel.ID)))
	s.writeElement(buf, "display-name", channel.DisplayName, 4)
	if channel.IconURL != "" {
		buf.WriteString(fmt.Sprintf("    <icon src=\"%s\" />\n", html.EscapeString(channel.IconURL)))
	}
	buf.WriteString("  </channel>\n")
}

func (s *Serializer) writeProgramme(buf *bytes.Buffer, programme ProgrammeEntry) {
	stop := programme.Stop
	if !stop.After(programme.Start) {
		stop = programme.Start.Add(time.Minute)
	}

	buf.WriteString(fmt.Sprintf("  <programme start=\"%s\" stop=\"%s\" channel=\"%s\">\n",
		programme.Start.In(s.loc).Format(xmltvTimeLayout),
		stop.In(s.loc).Format(xmltvTimeLayout),
		html.EscapeString(programme.ChannelID)))

	s.writeElement(buf, "title", programme.Title, 4)
	s.writeElement(buf, "sub-title", programme.Subtitle, 4)
	s.writeElement(buf, "desc", programme.Description, 4)
	for _, category := range sortedCategories(programme.Categories) {
		s.writeElement(buf, "category", category, 4)
	}
	if programme.Freshness == FreshnessNew {
		buf.WriteString("    <new />\n")
	}

	buf.WriteString("  </programme>\n")
}

// sortedCategories returns the categories sorted and deduplicated, so the
// emitted elements match the order the fingerprinter hashes them in.
func sortedCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, category := range categories {
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func (s *Serializer) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// WriteAtomic writes the document to path via a temp file in the same
// directory followed by a rename, so readers never observe a partial file.
func WriteAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace output: %w", err)
	}
	return nil
}
