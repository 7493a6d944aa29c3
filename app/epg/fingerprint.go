package epg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bittles/teamarr/app/database"
)

// Fingerprinter computes content fingerprints for programme entries and diffs
// a run's entries against the previous snapshot. The freshness marker is
// derived FROM the diff, so it never feeds back into the hash.
type Fingerprinter struct{}

func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint hashes the content-bearing fields of an entry. Categories are
// sorted and deduplicated first, matching the serializer, so neither authored
// order nor a repeated category can flap the hash.
func (f *Fingerprinter) Fingerprint(entry ProgrammeEntry) string {
	categories := sortedCategories(entry.Categories)

	content := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		entry.ChannelID,
		entry.Start.UTC().Format(time.RFC3339),
		entry.Stop.UTC().Format(time.RFC3339),
		entry.Title,
		entry.Subtitle,
		entry.Description,
		strings.Join(categories, ","))

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Diff partitions entries against the previous run's fingerprints and stamps
// each entry's Freshness: added and changed entries are new, unchanged entries
// are repeats. Keys present before but absent now are reported as removed.
func (f *Fingerprinter) Diff(previous map[database.FingerprintKey]string, entries []ProgrammeEntry) (DiffResult, map[database.FingerprintKey]string) {
	var result DiffResult
	current := make(map[database.FingerprintKey]string, len(entries))

	for i := range entries {
		key := entries[i].Key()
		fingerprint := f.Fingerprint(entries[i])
		current[key] = fingerprint

		old, existed := previous[key]
		switch {
		case !existed:
			entries[i].Freshness = FreshnessNew
			result.Added = append(result.Added, entries[i])
		case old != fingerprint:
			entries[i].Freshness = FreshnessNew
			result.Changed = append(result.Changed, entries[i])
		default:
			entries[i].Freshness = FreshnessRepeat
			result.Unchanged = append(result.Unchanged, entries[i])
		}
	}

	for key := range previous {
		if _, ok := current[key]; !ok {
			result.Removed = append(result.Removed, key)
		}
	}
	sort.Slice(result.Removed, func(i, j int) bool {
		if result.Removed[i].ChannelID != result.Removed[j].ChannelID {
			return result.Removed[i].ChannelID < result.Removed[j].ChannelID
		}
		return result.Removed[i].Start < result.Removed[j].Start
	})

	return result, current
}
