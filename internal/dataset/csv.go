package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoHeader is returned for a CSV source with no rows at all.
var ErrNoHeader = errors.New("no header row")

// ReadCSV parses r into a Raw dataset named name. The first record is the
// header. Records may be shorter or longer than the header; cleaning
// decides what to do with them.
func ReadCSV(name string, r io.Reader) (Raw, error) {
	cr := csv.NewReader(Wrap(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return Raw{}, ErrNoHeader
	}
	if err != nil {
		return Raw{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	raw := Raw{Name: name, Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Raw{}, fmt.Errorf("read record %d: %w", len(raw.Records)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		raw.Records = append(raw.Records, rec)
	}
	return raw, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(name, path string) (Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return Raw{}, err
	}
	defer f.Close()

	raw, err := ReadCSV(name, f)
	if err != nil {
		return Raw{}, fmt.Errorf("%s: %w", path, err)
	}
	raw.Source = path
	return raw, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
