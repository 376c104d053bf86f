package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

// SchemaPolicy selects what happens to the old table when the header changes.
type SchemaPolicy string

const (
	// PolicyOverwrite truncates history and starts a fresh table in place.
	PolicyOverwrite SchemaPolicy = "overwrite"
	// PolicyRotate renames the old table aside before starting a fresh one.
	PolicyRotate SchemaPolicy = "rotate"
)

const rotateLayout = "20060102_150405"

var errFieldCount = errors.New("record field count does not match header")

// CSVTable is the persisted time series: one UTF-8, comma-delimited file.
// It implements telemetry.TableWriter and is the table's only writer.
type CSVTable struct {
	path   string
	policy SchemaPolicy
	now    func() time.Time
}

// NewCSVTable creates a CSVTable for path. An unknown policy falls back to overwrite.
func NewCSVTable(path string, policy SchemaPolicy) *CSVTable {
	if policy != PolicyRotate {
		policy = PolicyOverwrite
	}
	return &CSVTable{
		path:   path,
		policy: policy,
		now:    time.Now,
	}
}

func (t *CSVTable) Path() string {
	return t.path
}

// ReadHeader returns the header row on disk, or nil if the file is absent or empty.
func (t *CSVTable) ReadHeader() ([]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", t.path, err)
	}
	return trimBOM(header), nil
}

// Write persists one data row. WriteOverwrite, or a missing file, starts a new
// table with header; otherwise the record is appended.
func (t *CSVTable) Write(mode telemetry.WriteMode, header, record []string) error {
	if len(header) != len(record) {
		return fmt.Errorf("%w: header has %d fields, record has %d", errFieldCount, len(header), len(record))
	}

	info, err := os.Stat(t.path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if mode == telemetry.WriteOverwrite || !exists {
		if exists && t.policy == PolicyRotate && info.Size() > 0 {
			if err := os.Rename(t.path, t.rotatedPath()); err != nil {
				return fmt.Errorf("rotating %s: %w", t.path, err)
			}
		}
		return t.rewrite(header, record)
	}
	return t.appendRecord(record)
}

// rewrite replaces the file atomically with header and record.
func (t *CSVTable) rewrite(header, record []string) error {
	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeRecords(tmp, header, record); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, t.path)
}

func (t *CSVTable) appendRecord(record []string) error {
	f, err := os.OpenFile(t.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if err := writeRecords(f, record); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecords(w io.Writer, records ...[]string) error {
	cw := csv.NewWriter(w)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// rotatedPath names the aside copy: <stem>_<YYYYMMDD_HHMMSS><ext>.
func (t *CSVTable) rotatedPath() string {
	ext := filepath.Ext(t.path)
	stem := strings.TrimSuffix(t.path, ext)
	base := stem + "_" + t.now().Format(rotateLayout)

	candidate := base + ext
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
