package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/quiver-seismic/quiver/internal/waveform"
)

// timeLayout matches the absolute timestamps in both the lunar and martian
// files. Fractional seconds are accepted on parse without being in the layout.
const timeLayout = "2006-01-02T15:04:05"

var errNoSamples = errors.New("waveform file has no samples")

// CatalogRecord is one row of a training catalog.
type CatalogRecord struct {
	Filename   string
	ArrivalAbs time.Time
	ArrivalRel float64
	EventID    string
}

// ReadCatalog parses a training catalog. Columns are matched by header
// prefix: filename, time_abs, time_rel and evid.
func ReadCatalog(r io.Reader) ([]CatalogRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}
	cols := columns(header)
	fileCol, ok := cols.find("filename")
	if !ok {
		return nil, fmt.Errorf("catalog has no filename column")
	}
	relCol, ok := cols.find("time_rel")
	if !ok {
		return nil, fmt.Errorf("catalog has no time_rel column")
	}
	absCol, hasAbs := cols.find("time_abs")
	evidCol, hasEvid := cols.find("evid")

	var records []CatalogRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}

		rel, err := strconv.ParseFloat(row[relCol], 64)
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: bad time_rel %q: %w", line, row[relCol], err)
		}
		rec := CatalogRecord{Filename: row[fileCol], ArrivalRel: rel}
		if hasAbs {
			// The absolute time is informational; a malformed value is left zero.
			rec.ArrivalAbs, _ = time.Parse(timeLayout, row[absCol])
		}
		if hasEvid {
			rec.EventID = row[evidCol]
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadWaveform parses a waveform CSV into a channel named id. The relative
// time column (time_rel or rel_time) fixes the sample rate as the mean rate
// over the file; the absolute time column (time_abs or time), when present,
// sets the start time. The velocity column holds the samples.
func ReadWaveform(r io.Reader, id string) (*waveform.Channel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading waveform header: %w", err)
	}
	cols := columns(header)
	valueCol, ok := cols.find("velocity")
	if !ok {
		return nil, fmt.Errorf("waveform has no velocity column")
	}
	relCol, hasRel := cols.find("time_rel", "rel_time")
	absCol, hasAbs := cols.find("time_abs", "time(")
	if !hasRel && !hasAbs {
		return nil, fmt.Errorf("waveform has no time column")
	}

	var (
		samples     []float64
		first, last float64
		start       time.Time
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("waveform line %d: %w", line, err)
		}

		v, err := strconv.ParseFloat(row[valueCol], 64)
		if err != nil {
			return nil, fmt.Errorf("waveform line %d: bad velocity %q: %w", line, row[valueCol], err)
		}

		var t float64
		if hasRel {
			t, err = strconv.ParseFloat(row[relCol], 64)
			if err != nil {
				return nil, fmt.Errorf("waveform line %d: bad relative time %q: %w", line, row[relCol], err)
			}
		}
		if hasAbs && (len(samples) == 0 || !hasRel) {
			abs, err := time.Parse(timeLayout, row[absCol])
			if err != nil {
				return nil, fmt.Errorf("waveform line %d: bad timestamp %q: %w", line, row[absCol], err)
			}
			if len(samples) == 0 {
				start = abs
			}
			if !hasRel {
				t = abs.Sub(start).Seconds()
			}
		}

		if len(samples) == 0 {
			first = t
		}
		last = t
		samples = append(samples, v)
	}

	if len(samples) == 0 {
		return nil, errNoSamples
	}
	rate := 1.0
	if len(samples) > 1 {
		if last <= first {
			return nil, fmt.Errorf("waveform time column does not increase")
		}
		rate = float64(len(samples)-1) / (last - first)
	}
	return waveform.New(id, samples, rate, start)
}

type columns []string

// find returns the first column whose header starts with any of prefixes.
func (c columns) find(prefixes ...string) (int, bool) {
	for _, p := range prefixes {
		for i, name := range c {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), p) {
				return i, true
			}
		}
	}
	return 0, false
}
