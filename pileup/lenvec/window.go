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
package lenvec

import (
	elenvec "github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/pileup"
)

// PosType is the integer type used to represent genomic positions.
type PosType = pileup.PosType

// Problem:
// Given the alignments of one chromosome+strand in nondecreasing start
// order, report, for every covered position, the summed weight of the reads
// of each length covering it.
//
// Implementation strategy:
// Once a read starting at position s arrives, no later read can cover any
// position < s, so every such position can be finalized immediately.  We keep
// the reads that may still cover unfinalized positions in arrival order, each
// with a countdown of how many more positions it covers.  frontPos is the
// leftmost unfinalized position.
//
// To finalize frontPos we scan all queued reads, add each in-range read's
// weight to its length bin, and decrement every countdown.  A read whose
// countdown hits zero has its weight zeroed: it has now contributed to its
// last position and will add nothing to later ones.  Zero-weight reads at the
// front of the queue are dropped before the next read is appended.  The queue
// only holds reads overlapping frontPos (plus some dead ones behind a live
// read), so the per-position cost tracks local depth.

type activeRead struct {
	weight    float64
	remaining int
	length    int
}

// Window turns a position-sorted stream of reads on one chromosome+strand
// into sparse length-vector rows.
type Window struct {
	minLen, maxLen int
	reads          []activeRead
	frontPos       PosType
	// nLive is the number of queued reads with nonzero weight.
	nLive int
	row   elenvec.Row
	w     elenvec.RowWriter
}

// NewWindow creates a Window for reads on chrom/strand.  Reads with length in
// [minLen, maxLen] are tallied; others still occupy the window but never
// contribute to a bin.
func NewWindow(chrom string, strand pileup.StrandType, minLen, maxLen int, w elenvec.RowWriter) *Window {
	nBin := maxLen - minLen + 1
	if nBin < 0 {
		nBin = 0
	}
	return &Window{
		minLen: minLen,
		maxLen: maxLen,
		row: elenvec.Row{
			Chrom:  chrom,
			Strand: strand,
			Bins:   make([]float64, nBin),
		},
		w: w,
	}
}

// FrontPos returns the leftmost position not yet finalized.
func (w *Window) FrontPos() PosType {
	return w.frontPos
}

// Len returns the number of reads currently queued, including dead reads
// not yet purged.
func (w *Window) Len() int {
	return len(w.reads)
}

// flushPos finalizes w.frontPos: it emits the position's row if any bin is
// nonzero, advances every countdown, and moves frontPos forward by one.
func (w *Window) flushPos() error {
	bins := w.row.Bins
	for i := range bins {
		bins[i] = 0
	}
	var sum float64
	for i := range w.reads {
		r := &w.reads[i]
		if r.length >= w.minLen && r.length <= w.maxLen {
			bins[r.length-w.minLen] += r.weight
			sum += r.weight
		}
		r.remaining--
		if r.remaining <= 0 && r.weight != 0 {
			r.weight = 0
			w.nLive--
		}
	}
	if sum != 0 {
		w.row.Pos = w.frontPos
		if err := w.w.Write(&w.row); err != nil {
			return err
		}
	}
	w.frontPos++
	return nil
}

// Add adds a read covering [start, start+length) with the given weight.
// start must not be less than the start of any previously added read.
func (w *Window) Add(start PosType, length int, weight float64) error {
	if len(w.reads) == 0 {
		w.frontPos = start
	}
	for w.frontPos < start {
		if w.nLive == 0 {
			// Only dead reads remain.  Walking the gap would emit nothing, so jump.
			w.reads = w.reads[:0]
			w.frontPos = start
			break
		}
		if err := w.flushPos(); err != nil {
			return err
		}
	}
	nDead := 0
	for nDead < len(w.reads) && w.reads[nDead].weight == 0 {
		nDead++
	}
	if nDead == len(w.reads) {
		w.reads = w.reads[:0]
	} else if nDead > 0 {
		w.reads = w.reads[nDead:]
	}
	w.reads = append(w.reads, activeRead{weight: weight, remaining: length, length: length})
	if weight != 0 {
		w.nLive++
	}
	return nil
}

// Finish flushes every remaining covered position.  It pushes one synthetic
// length-1, weight-1 read just past the farthest queued read, which drives
// the regular flush loop over the tail; the synthetic read itself is never
// reported.  The Window is empty afterwards.
func (w *Window) Finish() error {
	if len(w.reads) == 0 {
		return nil
	}
	maxRemaining := 0
	for i := range w.reads {
		if w.reads[i].remaining > maxRemaining {
			maxRemaining = w.reads[i].remaining
		}
	}
	if err := w.Add(w.frontPos+PosType(maxRemaining), 1, 1); err != nil {
		return err
	}
	w.reads = w.reads[:0]
	w.nLive = 0
	return nil
}
