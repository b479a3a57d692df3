// Package recidive resolves the identity a report is grouped under for
// occurrence counting, and counts prior confirmed occurrences.
package recidive

import (
	"strings"
	"unicode"

	id "contraventions/pkg/domain"
	"contraventions/internal/report/models"
)

// Kind discriminates the variants of a Key.
type Kind string

const (
	// KindResident: a durable resident identifier. Authoritative: a report
	// carrying one always resolves here, even if it also carries a location
	// tag, because the tag may be stale or shared.
	KindResident Kind = "resident"
	// KindLocation: a normalized (room, building) tuple.
	KindLocation Kind = "location"
	// KindNone: the report carries neither; its key is unique to the report
	// and by construction never matches another, so such reports are always
	// occurrence 1.
	KindNone Kind = "none"
)

// Key is the derived recidive identity of a report. Two reports share a Key
// iff Kind and Value are both equal. Location keys additionally carry the
// normalized parts so SQL stores can match on columns without re-parsing the
// joined value.
type Key struct {
	Kind  Kind
	Value string

	// Room and Building are set for KindLocation only, already normalized.
	Room     string
	Building string
}

// Matchable reports whether the key can ever match another report's key.
func (k Key) Matchable() bool { return k.Kind != KindNone }

// String renders the key for locking and logging, e.g. "resident:R-172" or
// "location:101|A".
func (k Key) String() string { return string(k.Kind) + ":" + k.Value }

// ResidentKey builds the key for a durable resident identifier.
func ResidentKey(residentID id.ResidentID) Key {
	return Key{Kind: KindResident, Value: residentID.String()}
}

// LocationKey builds the key for a room/building pair, normalizing both.
func LocationKey(room, building string) Key {
	r, b := NormalizeRoom(room), NormalizeBuilding(building)
	return Key{Kind: KindLocation, Value: r + "|" + b, Room: r, Building: b}
}

// ResolveKey derives the recidive key for a report. Priority is fixed:
// resident identifier, then complete location tag, then a per-report
// sentinel.
func ResolveKey(r *models.Report) Key {
	if r.ResidentID != nil && !r.ResidentID.IsNil() {
		return ResidentKey(*r.ResidentID)
	}
	if r.Location.Complete() {
		return LocationKey(r.Location.Room, r.Location.Building)
	}
	return Key{Kind: KindNone, Value: r.Ref.String()}
}

// LocationValue is the joined encoding of a normalized room/building pair,
// used for display-oriented indexing (the residency directory). Matching for
// recidive purposes compares the Key struct, whose parts stay separate, so a
// separator character inside a room number cannot conflate two locations.
func LocationValue(room, building string) string {
	return NormalizeRoom(room) + "|" + NormalizeBuilding(building)
}

// NormalizeRoom canonicalizes a room number: trim whitespace, uppercase.
func NormalizeRoom(room string) string {
	return strings.ToUpper(strings.TrimSpace(room))
}

// NormalizeBuilding canonicalizes a building name. Verbose labels such as
// "Building A" or "Bâtiment A" collapse to their trailing single-letter
// code; labels already in canonical form ("A", "ANNEX2") pass through
// unchanged apart from trimming and uppercasing.
func NormalizeBuilding(building string) string {
	normalized := strings.ToUpper(strings.TrimSpace(building))
	parts := strings.Fields(normalized)
	if len(parts) > 1 {
		last := []rune(parts[len(parts)-1])
		if len(last) == 1 && unicode.IsLetter(last[0]) {
			return string(last)
		}
	}
	return normalized
}
