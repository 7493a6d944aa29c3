package epg

import (
	"testing"
	"time"

	"github.com/bittles/teamarr/app/database"
)

func TestFingerprintStableAcrossCategoryOrder(t *testing.T) {
	fingerprinter := NewFingerprinter()

	a := sampleProgramme()
	a.Categories = []string{"Basketball", "Sports"}
	b := sampleProgramme()
	b.Categories = []string{"Sports", "Basketball"}

	if fingerprinter.Fingerprint(a) != fingerprinter.Fingerprint(b) {
		t.Error("category order should not change the fingerprint")
	}
}

func TestFingerprintIgnoresFreshness(t *testing.T) {
	fingerprinter := NewFingerprinter()

	a := sampleProgramme()
	a.Freshness = FreshnessNew
	b := sampleProgramme()
	b.Freshness = FreshnessRepeat

	if fingerprinter.Fingerprint(a) != fingerprinter.Fingerprint(b) {
		t.Error("freshness marker should not feed into the fingerprint")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	fingerprinter := NewFingerprinter()

	a := sampleProgramme()
	b := sampleProgramme()
	b.Description = "Updated description."

	if fingerprinter.Fingerprint(a) == fingerprinter.Fingerprint(b) {
		t.Error("different descriptions should yield different fingerprints")
	}
}

func TestDiffPartitions(t *testing.T) {
	fingerprinter := NewFingerprinter()

	unchanged := sampleProgramme()
	changed := sampleProgramme()
	changed.Start = changed.Start.Add(24 * time.Hour)
	changed.Stop = changed.Stop.Add(24 * time.Hour)
	added := sampleProgramme()
	added.Start = added.Start.Add(48 * time.Hour)
	added.Stop = added.Stop.Add(48 * time.Hour)

	removedKey := database.FingerprintKey{ChannelID: "detroit-pistons", Start: "2025-11-10T00:00:00Z"}

	previous := map[database.FingerprintKey]string{
		unchanged.Key(): fingerprinter.Fingerprint(unchanged),
		changed.Key():   "stale-fingerprint",
		removedKey:      "gone",
	}

	entries := []ProgrammeEntry{unchanged, changed, added}
	result, current := fingerprinter.Diff(previous, entries)

	if len(result.Unchanged) != 1 || result.Unchanged[0].Key() != unchanged.Key() {
		t.Errorf("Unchanged = %v", result.Unchanged)
	}
	if len(result.Changed) != 1 || result.Changed[0].Key() != changed.Key() {
		t.Errorf("Changed = %v", result.Changed)
	}
	if len(result.Added) != 1 || result.Added[0].Key() != added.Key() {
		t.Errorf("Added = %v", result.Added)
	}
	if len(result.Removed) != 1 || result.Removed[0] != removedKey {
		t.Errorf("Removed = %v", result.Removed)
	}

	if result.Unchanged[0].Freshness != FreshnessRepeat {
		t.Error("unchanged entry should be a repeat")
	}
	if result.Changed[0].Freshness != FreshnessNew {
		t.Error("changed entry should be new")
	}
	if result.Added[0].Freshness != FreshnessNew {
		t.Error("added entry should be new")
	}

	if len(current) != 3 {
		t.Errorf("current snapshot has %d keys, want 3", len(current))
	}
	if _, ok := current[removedKey]; ok {
		t.Error("removed key should not appear in the current snapshot")
	}
}

func TestDiffEmptyPrevious(t *testing.T) {
	fingerprinter := NewFingerprinter()

	entries := []ProgrammeEntry{sampleProgramme()}
	result, current := fingerprinter.Diff(nil, entries)

	if len(result.Added) != 1 || len(result.Unchanged) != 0 || len(result.Changed) != 0 || len(result.Removed) != 0 {
		t.Errorf("first run should classify everything as added: %+v", result)
	}
	if len(current) != 1 {
		t.Errorf("current snapshot has %d keys, want 1", len(current))
	}
}
