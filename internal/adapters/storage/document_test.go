package storage

import (
	"testing"
	"time"

	"github.com/hylla/takt/internal/domain"
)

func TestStateDocumentRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 6, 18, 0, 0, 0, time.UTC)
	data := domain.NewVelocityData()
	data.RecordTask("spec-a", true, now)
	data.RecordTask("spec-a", false, now.AddDate(0, 0, -7))
	data.UpdateSpecProgress("spec-a", 2, 2, now)

	raw, err := EncodeState(*data)
	if err != nil {
		t.Fatalf("EncodeState() error = %v", err)
	}
	decoded, err := DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}

	if len(decoded.Weeks) != 2 {
		t.Fatalf("expected 2 week buckets, got %d", len(decoded.Weeks))
	}
	key := domain.WeekKeyOf(now)
	if decoded.Weeks[key] == nil || decoded.Weeks[key].Required != 1 {
		t.Fatalf("unexpected bucket %+v", decoded.Weeks[key])
	}
	activity := decoded.Specs["spec-a"]
	if activity == nil || activity.CompletionDate == nil || !activity.CompletionDate.Equal(now) {
		t.Fatalf("unexpected activity %+v", activity)
	}
}

func TestDecodeStateRejectsUnknownVersion(t *testing.T) {
	if _, err := DecodeState([]byte(`{"version":99,"weeks":{},"specs":{}}`)); err == nil {
		t.Fatal("expected version error")
	}
}

// TestDecodeStateRekeysBuckets verifies the map key wins over a stale
// embedded week field.
func TestDecodeStateRekeysBuckets(t *testing.T) {
	raw := []byte(`{"version":1,"weeks":{"2026-W06":{"week":"2025-W01","total":1,"required":1,"optional":0,"days":{"monday":1,"tuesday":0,"wednesday":0,"thursday":0,"friday":0,"saturday":0,"sunday":0}}},"specs":{}}`)
	decoded, err := DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	key := domain.WeekKey{Year: 2026, Week: 6}
	bucket := decoded.Weeks[key]
	if bucket == nil {
		t.Fatal("expected bucket under map key")
	}
	if bucket.Week != key {
		t.Fatalf("bucket week = %v, want %v", bucket.Week, key)
	}
}
