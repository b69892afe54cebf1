package patients

import (
	"strings"
	"testing"
)

func TestContextIsDeterministic(t *testing.T) {
	record := Demo()

	first := record.Context()
	second := record.Context()

	if first != second {
		t.Fatalf("expected byte-identical renderings of the same record")
	}
}

func TestContextOrdersPreviousCallsMostRecentFirst(t *testing.T) {
	rendered := Demo().Context()

	second := strings.Index(rendered, "2026-02-10")
	first := strings.Index(rendered, "2026-02-03")
	if second == -1 || first == -1 {
		t.Fatalf("expected both call logs in rendering")
	}
	if second > first {
		t.Fatalf("expected most recent call log first, got positions %d and %d", second, first)
	}
}

func TestContextToleratesMissingOptionalFields(t *testing.T) {
	record := Record{ID: "PT-0", Name: "Jane Doe"}

	rendered := record.Context()

	if !strings.Contains(rendered, "PATIENT PROFILE:") {
		t.Fatalf("expected profile section even for a sparse record")
	}
	if strings.Contains(rendered, "NEXT APPOINTMENT") {
		t.Fatalf("expected no appointment section for zero appointment date")
	}
}

func TestSnapshotDoesNotAliasSlices(t *testing.T) {
	record := Demo()
	snapshot := record.Snapshot()

	record.Allergies[0] = "mutated"
	record.PreviousCalls[0].Symptoms[0] = "mutated"

	if snapshot.Allergies[0] == "mutated" {
		t.Fatalf("expected snapshot allergies to be independent of the source record")
	}
	if snapshot.PreviousCalls[0].Symptoms[0] == "mutated" {
		t.Fatalf("expected snapshot call symptoms to be independent of the source record")
	}
}

func TestAnticoagulantFindsClotPreventionMedication(t *testing.T) {
	med := Demo().Anticoagulant()

	if med == nil {
		t.Fatalf("expected an anticoagulant in the demo record")
	}
	if med.Name != "Enoxaparin" {
		t.Fatalf("expected Enoxaparin, got %s", med.Name)
	}
}

func TestLastPainLevelUsesMostRecentCall(t *testing.T) {
	level, ok := Demo().LastPainLevel()

	if !ok {
		t.Fatalf("expected a pain level from call history")
	}
	if level != 5 {
		t.Fatalf("expected pain level 5 from the latest call, got %d", level)
	}
}
