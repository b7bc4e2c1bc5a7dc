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
	"io"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/interval"
	"github.com/grailbio/smrna/pileup"
)

// LocusStrand maps a locus strand column to the length-vector file it is
// looked up in.  Anything other than "+" or "-" is StrandNone, which has no
// file.
func LocusStrand(s string) pileup.StrandType {
	return pileup.ParseStrand(gunsafe.StringToBytes(s))
}

// Aggregator sums length-vector rows over loci.  The local index of the
// current chromosome+strand is kept until a locus on a different one
// arrives, so loci grouped by chromosome+strand are cheap.
type Aggregator struct {
	sources [pileup.NStrand]LineSource
	index   *lenvec.StrandedIndex
	stride  int

	local *LocalIndex
	// nBins is learned from the first row seen and fixed afterwards.  -1 means
	// unknown.
	nBins    int
	nRebuild int
	bins     []float64
	row      []float64
}

// NewAggregator creates an Aggregator reading the plus- and minus-strand
// length-vector files through plus and minus, located through idx.
func NewAggregator(plus, minus LineSource, idx *lenvec.StrandedIndex, stride int) *Aggregator {
	return &Aggregator{
		sources: [pileup.NStrand]LineSource{plus, minus},
		index:   idx,
		stride:  stride,
		nBins:   -1,
	}
}

// NBins returns the number of length bins, or -1 if no row has been seen.
func (a *Aggregator) NBins() int {
	return a.nBins
}

// NRebuild returns the number of local indexes built so far.
func (a *Aggregator) NRebuild() int {
	return a.nRebuild
}

func (a *Aggregator) learnBins(n int) {
	if a.nBins < 0 {
		a.nBins = n
	}
}

// localIndex returns the local index for chrom/strand, building it if the
// current one covers a different block.
func (a *Aggregator) localIndex(chrom string, strand pileup.StrandType) (*LocalIndex, error) {
	if a.local != nil && a.local.Chrom == chrom && a.local.Strand == strand {
		return a.local, nil
	}
	a.local = nil
	startOff, err := a.index.Lookup(chrom, strand)
	if err != nil {
		return nil, err
	}
	local, err := BuildLocalIndex(a.sources[strand.StrandIndex()], chrom, strand, startOff, a.stride)
	if err != nil {
		return nil, err
	}
	log.Printf("locus: indexed %s;%s: %d samples", chrom, strand, local.Len())
	if local.Len() > 0 {
		a.learnBins(local.NBins)
	}
	a.local = local
	a.nRebuild++
	return local, nil
}

// Sum returns the per-bin sum of the rows of l's chromosome and strand
// with position in [l.Start, l.End).  The result is valid until the next
// call.  An errors.NotExist error is returned if the chromosome+strand is not
// in the index, which includes every locus whose strand is not "+" or "-".
func (a *Aggregator) Sum(l *interval.Locus) ([]float64, error) {
	strand := LocusStrand(l.Strand)
	if strand == pileup.StrandNone {
		return nil, errors.E(errors.NotExist, "could not find start position for "+l.Chrom+";"+l.Strand+" in index")
	}
	local, err := a.localIndex(l.Chrom, strand)
	if err != nil {
		return nil, err
	}
	src := a.sources[strand.StrandIndex()]
	if err = src.SeekLine(local.Offset(l.Start)); err != nil {
		return nil, err
	}
	sums := a.bins[:0]
	if a.nBins > 0 {
		if cap(sums) < a.nBins {
			sums = make([]float64, a.nBins)
		}
		sums = sums[:a.nBins]
		for i := range sums {
			sums[i] = 0
		}
	}
	for {
		line, _, err := src.ReadLine()
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
		if !matchesKey(rowChrom, rowStrand, l.Chrom, strand) || pos >= l.End {
			break
		}
		if pos < l.Start {
			continue
		}
		a.row = lenvec.ParseBins(a.row, bins)
		addBins(sums, a.row)
	}
	a.bins = sums
	return sums, nil
}

// addBins adds vals to sums, by position.  Extra values are ignored and
// missing ones count as zero.
func addBins(sums, vals []float64) {
	if len(vals) > len(sums) {
		vals = vals[:len(sums)]
	}
	for i, v := range vals {
		sums[i] += v
	}
}

// Normalize converts per-bin sums over a locus of the given length into
// log2 odds against a uniform length distribution.  sums is modified in
// place and returned.  A length below one is treated as one.
func Normalize(sums []float64, length int) []float64 {
	if len(sums) == 0 {
		return sums
	}
	if length < 1 {
		length = 1
	}
	var rowSum float64
	for i := range sums {
		sums[i] = sums[i]/float64(length) + 1
		rowSum += sums[i]
	}
	expected := 1 / float64(len(sums))
	for i := range sums {
		sums[i] = math.Log2(sums[i] / rowSum / expected)
	}
	return sums
}
