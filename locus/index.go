// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package locus

import (
	"bytes"
	"io"

	"github.com/biogo/store/llrb"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/pileup"
)

// LineSource is random access to the lines of a length-vector file.
// *lenvec.LineReader implements it.
type LineSource interface {
	// SeekLine positions the source so that the next ReadLine starts at byte
	// off.
	SeekLine(off int64) error
	// ReadLine returns the next line, without its newline, and the byte
	// offset of its first byte.  io.EOF is returned once no lines remain.
	ReadLine() (line []byte, start int64, err error)
}

// sample maps a position to the offset of the first line at that position.
type sample struct {
	pos lenvec.PosType
	off int64
}

// Compare implements llrb.Comparable.
func (s sample) Compare(c llrb.Comparable) int {
	s2 := c.(sample)
	if s.pos < s2.pos {
		return -1
	}
	if s.pos > s2.pos {
		return 1
	}
	return 0
}

// LocalIndex is a sparse position -> byte offset map over one
// chromosome+strand block of a length-vector file.  It only supplies a
// starting point for a scan; readers must still check each row's own
// position.
type LocalIndex struct {
	Chrom  string
	Strand pileup.StrandType
	// NBins is the bin count of the first row of the block, or 0 if the
	// block has no rows.
	NBins    int
	startOff int64
	samples  llrb.Tree
}

// matchesKey reports whether the row key chrom/strand belongs to the block.
func matchesKey(rowChrom []byte, rowStrand pileup.StrandType, chrom string, strand pileup.StrandType) bool {
	return rowStrand == strand && gunsafe.BytesToString(rowChrom) == chrom
}

// BuildLocalIndex scans the chrom/strand block of src starting at byte
// startOff, and samples the first row plus every row whose position is at
// least stride past the previously sampled one.  The scan stops at the
// first row of a different chromosome or strand, or at EOF.
func BuildLocalIndex(src LineSource, chrom string, strand pileup.StrandType, startOff int64, stride int) (*LocalIndex, error) {
	if stride < 1 {
		stride = 1
	}
	idx := &LocalIndex{
		Chrom:    chrom,
		Strand:   strand,
		startOff: startOff,
	}
	if err := src.SeekLine(startOff); err != nil {
		return nil, err
	}
	var (
		first   = true
		lastPos lenvec.PosType
	)
	for {
		line, start, err := src.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		rowChrom, rowStrand, pos, bins := lenvec.ParseKey(line)
		if !matchesKey(rowChrom, rowStrand, chrom, strand) {
			break
		}
		if first {
			idx.NBins = countFields(bins)
		}
		if first || int64(pos) >= int64(lastPos)+int64(stride) {
			idx.samples.Insert(sample{pos: pos, off: start})
			lastPos = pos
			first = false
		}
	}
	return idx, nil
}

// countFields returns the number of tab-separated fields in b.
func countFields(b []byte) int {
	if b == nil {
		return 0
	}
	return bytes.Count(b, []byte{'\t'}) + 1
}

// Len returns the number of samples.
func (idx *LocalIndex) Len() int {
	return idx.samples.Len()
}

// Offset returns the byte offset to start scanning from for a query at pos:
// that of the greatest sample <= pos, else that of the earliest sample.  An
// index with no samples returns the block start.
func (idx *LocalIndex) Offset(pos lenvec.PosType) int64 {
	if c := idx.samples.Floor(sample{pos: pos}); c != nil {
		return c.(sample).off
	}
	if c := idx.samples.Min(); c != nil {
		return c.(sample).off
	}
	return idx.startOff
}
