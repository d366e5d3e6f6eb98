// apps/go-server/internal/capitals/capitals.go
//
// Capital-city dataset used to pick round targets.
//
// Responsibilities:
//   - Parse the ranked capitals CSV into an ordered, immutable slice.
//   - Validate every record (names present, coordinates in range).
//   - Load from a file when CAPITALS_FILE is configured, else from the embedded default.
//
// The order of the records is significant: rows are ranked by economic size and the
// difficulty schedule slices this order into tiers. Nothing here reorders rows.

package capitals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/robalobadob/capitals/apps/go-server/assets"
)

// Capital is a single ranked record. Values are never mutated after loading.
type Capital struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label is the human readable "{name}, {country}" form shown on reveal.
func (c Capital) Label() string {
	return c.Name + ", " + c.Country
}

var ErrEmpty = errors.New("capitals: dataset is empty")

// header columns, in order.
var header = []string{"capital", "country", "latitude", "longitude"}

// Load reads the dataset from path, or from the embedded default when path is empty.
func Load(path string) ([]Capital, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if path != "" {
		rc, err = os.Open(path)
	} else {
		rc, err = assets.Capitals()
	}
	if err != nil {
		return nil, fmt.Errorf("open capitals: %w", err)
	}
	defer rc.Close()
	return Parse(rc)
}

// Parse decodes a capitals CSV. The first row must be the header.
func Parse(r io.Reader) ([]Capital, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(head[i]), col) {
			return nil, fmt.Errorf("header column %d: got %q, want %q", i+1, head[i], col)
		}
	}

	var out []Capital
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read capitals: %w", err)
		}
		line, _ := cr.FieldPos(0)
		c, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func parseRecord(rec []string) (Capital, error) {
	c := Capital{
		Name:    strings.TrimSpace(rec[0]),
		Country: strings.TrimSpace(rec[1]),
	}
	if c.Name == "" || c.Country == "" {
		return Capital{}, errors.New("capital and country are required")
	}
	var err error
	if c.Lat, err = strconv.ParseFloat(strings.TrimSpace(rec[2]), 64); err != nil {
		return Capital{}, fmt.Errorf("latitude: %w", err)
	}
	if c.Lon, err = strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err != nil {
		return Capital{}, fmt.Errorf("longitude: %w", err)
	}
	if !finite(c.Lat) || !finite(c.Lon) {
		return Capital{}, fmt.Errorf("coordinates %v,%v are not finite", c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return Capital{}, fmt.Errorf("latitude %v out of range", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return Capital{}, fmt.Errorf("longitude %v out of range", c.Lon)
	}
	return c, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
