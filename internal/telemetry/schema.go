package telemetry

// WriteMode is the file strategy for one persisted row.
type WriteMode int

const (
	// WriteAppend adds the row under the existing header.
	WriteAppend WriteMode = iota
	// WriteOverwrite starts a new table: header row, then the data row.
	WriteOverwrite
)

func (m WriteMode) String() string {
	if m == WriteOverwrite {
		return "overwrite"
	}
	return "append"
}

// SchemaTracker remembers the header of the persisted table.
// A nil current header is the NoFile state.
type SchemaTracker struct {
	current []string
}

// NewSchemaTracker starts from the header found on disk, or NoFile when nil/empty.
func NewSchemaTracker(existing []string) *SchemaTracker {
	t := &SchemaTracker{}
	if len(existing) > 0 {
		t.current = append([]string(nil), existing...)
	}
	return t
}

// Current returns a copy of the adopted header, nil in NoFile.
func (t *SchemaTracker) Current() []string {
	if t.current == nil {
		return nil
	}
	return append([]string(nil), t.current...)
}

// Decide picks the write mode for a cycle whose candidate header is header.
// changed is true only for a transition between two different known headers.
func (t *SchemaTracker) Decide(header []string) (mode WriteMode, changed bool) {
	if t.current == nil {
		return WriteOverwrite, false
	}
	if equalHeaders(t.current, header) {
		return WriteAppend, false
	}
	return WriteOverwrite, true
}

// Commit adopts header after it has been written successfully.
func (t *SchemaTracker) Commit(header []string) {
	t.current = append([]string(nil), header...)
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
