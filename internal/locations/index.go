// Package locations builds the fine-grained position index of a reflowable
// book. Each spine unit's text is cut into fixed-size character chunks; a
// chunk is one location, and progress is the location number divided by the
// last location number.
//
// # Usage
//
//	ix := locations.Generate(unitTexts, 1024)
//	data, err := ix.Save()
//	...
//	ix, err = locations.Load(data)
//	p, ok := ix.PercentOf(unit, offset)
package locations

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultChunkSize is the number of characters per location.
const DefaultChunkSize = 1024

var ErrInvalidIndex = errors.New("invalid location index")

// Span describes the locations of one spine unit.
type Span struct {
	Start int `json:"start"` // first location number
	Count int `json:"count"` // locations in the unit; 0 for units without text
	Chars int `json:"chars"` // characters in the unit
}

// Index maps (unit, character offset) pairs to location numbers.
type Index struct {
	ChunkSize int    `json:"chunk_size"`
	Total     int    `json:"total"`
	Units     []Span `json:"units"`
}

// Generate builds an index from the plain text of each spine unit.
func Generate(units []string, chunkSize int) *Index {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	ix := &Index{ChunkSize: chunkSize, Units: make([]Span, len(units))}
	for i, text := range units {
		chars := utf8.RuneCountInString(text)
		count := (chars + chunkSize - 1) / chunkSize
		ix.Units[i] = Span{Start: ix.Total, Count: count, Chars: chars}
		ix.Total += count
	}
	return ix
}

// Load parses an index produced by Save.
func Load(data []byte) (*Index, error) {
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	if err := ix.validate(); err != nil {
		return nil, err
	}
	return &ix, nil
}

// Save serializes the index.
func (ix *Index) Save() ([]byte, error) {
	return json.Marshal(ix)
}

// UnitCount is the number of spine units the index was built for.
func (ix *Index) UnitCount() int {
	return len(ix.Units)
}

// LocationOf returns the location number of a character offset in a unit.
func (ix *Index) LocationOf(unit, offset int) (int, bool) {
	if ix.Total == 0 || unit < 0 || unit >= len(ix.Units) {
		return 0, false
	}
	span := ix.Units[unit]
	loc := span.Start
	if span.Count > 0 {
		loc += min(max(offset, 0)/ix.ChunkSize, span.Count-1)
	}
	return min(loc, ix.Total-1), true
}

// PercentOf returns the progress fraction of a character offset in a unit.
func (ix *Index) PercentOf(unit, offset int) (float64, bool) {
	loc, ok := ix.LocationOf(unit, offset)
	if !ok {
		return 0, false
	}
	if ix.Total <= 1 {
		return 0, true
	}
	return float64(loc) / float64(ix.Total-1), true
}

// Resolve returns the unit and character offset addressed by a progress
// fraction.
func (ix *Index) Resolve(percent float64) (unit, offset int, ok bool) {
	if ix.Total == 0 || math.IsNaN(percent) {
		return 0, 0, false
	}
	p := math.Max(0, math.Min(1, percent))
	loc := int(math.Round(p * float64(ix.Total-1)))

	for i, span := range ix.Units {
		if span.Count > 0 && loc < span.Start+span.Count {
			return i, (loc - span.Start) * ix.ChunkSize, true
		}
	}
	return 0, 0, false
}

func (ix *Index) validate() error {
	if ix.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidIndex, ix.ChunkSize)
	}
	next := 0
	for i, span := range ix.Units {
		if span.Start != next || span.Count < 0 {
			return fmt.Errorf("%w: unit %d starts at %d, expected %d", ErrInvalidIndex, i, span.Start, next)
		}
		next += span.Count
	}
	if next != ix.Total {
		return fmt.Errorf("%w: total %d, expected %d", ErrInvalidIndex, ix.Total, next)
	}
	return nil
}
