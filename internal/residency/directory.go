// Package residency provides the read-only directory mapping a room and
// building to the resident living there. It exists purely to enrich invoice
// rendering; recidive identity never depends on it beyond sharing the same
// location normalization.
package residency

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"contraventions/internal/recidive"
)

// Entry is what a directory lookup yields for display purposes.
type Entry struct {
	DisplayName string
	Address     string
}

// Directory is the lookup contract consumed by the confirmation flow. A miss
// is an expected, non-exceptional outcome and is reported via the bool, not
// an error.
type Directory interface {
	Lookup(room, building string) (Entry, bool)
}

// CSVDirectory is an immutable in-memory index built from a residency
// export. It is constructed once and injected, never package-level state.
type CSVDirectory struct {
	byRoomKey map[string]Entry
}

// Expected column layout of the residency export. Header row is skipped.
const (
	colID = iota
	colLastName
	colFirstName
	colGender
	colProgram
	colBuilding
	colRoom
	colRoomType
	colEntryDate
	colExitDate
	colPaymentStatus
	columnCount
)

// LoadCSV builds a directory from a residency export file.
func LoadCSV(path string) (*CSVDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open residency export: %w", err)
	}
	defer f.Close()
	return New(f)
}

// New builds a directory from CSV content. Short rows are skipped rather
// than failing the load; the export is external data and one bad row should
// not take the directory down.
func New(r io.Reader) (*CSVDirectory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse residency export: %w", err)
	}

	d := &CSVDirectory{byRoomKey: make(map[string]Entry)}
	for i, row := range records {
		if i == 0 {
			continue // header
		}
		if len(row) < columnCount {
			continue
		}
		room := strings.TrimSpace(row[colRoom])
		building := strings.TrimSpace(row[colBuilding])
		if room == "" || building == "" {
			continue
		}
		key := recidive.LocationValue(room, building)
		d.byRoomKey[key] = Entry{
			DisplayName: strings.TrimSpace(row[colFirstName]) + " " + strings.TrimSpace(row[colLastName]),
			Address: fmt.Sprintf("Room %s, Building %s",
				recidive.NormalizeRoom(room), recidive.NormalizeBuilding(building)),
		}
	}
	return d, nil
}

// Lookup finds the resident for a room/building pair under the same
// normalization rules as recidive matching.
func (d *CSVDirectory) Lookup(room, building string) (Entry, bool) {
	entry, ok := d.byRoomKey[recidive.LocationValue(room, building)]
	return entry, ok
}

// Size returns the number of indexed rooms.
func (d *CSVDirectory) Size() int { return len(d.byRoomKey) }

// Empty returns a directory with no entries, for deployments without an
// export file. Every lookup degrades to the generic location label.
func Empty() *CSVDirectory {
	return &CSVDirectory{byRoomKey: make(map[string]Entry)}
}
