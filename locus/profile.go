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
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/interval"
	"github.com/grailbio/smrna/pileup"
)

type Opts struct {
	// Commandline options.
	MinReadLen int
	Stride     int
}

var DefaultOpts = Opts{
	MinReadLen: 18,
	Stride:     100,
}

// Profile is the length profile of one locus: the log2 odds of each read
// length against a uniform distribution.
type Profile struct {
	Name    string
	LogOdds []float64
}

// ProfileWriter writes profiles as TSV, preceded by a header line
//   name E<min> E<min+1> ...
// sized by the first profile written.
type ProfileWriter struct {
	tsvw       *tsv.Writer
	minReadLen int
	wroteHdr   bool
}

// NewProfileWriter creates a ProfileWriter whose header labels start at
// minReadLen.
func NewProfileWriter(w io.Writer, minReadLen int) *ProfileWriter {
	return &ProfileWriter{tsvw: tsv.NewWriter(w), minReadLen: minReadLen}
}

func (w *ProfileWriter) writeHeader(nBins int) error {
	w.tsvw.WriteString("name")
	for i := 0; i < nBins; i++ {
		w.tsvw.WriteString("E" + strconv.Itoa(w.minReadLen+i))
	}
	w.wroteHdr = true
	return w.tsvw.EndLine()
}

// Write writes one profile line, and the header first if needed.
func (w *ProfileWriter) Write(p *Profile) error {
	if !w.wroteHdr {
		if err := w.writeHeader(len(p.LogOdds)); err != nil {
			return err
		}
	}
	w.tsvw.WriteString(p.Name)
	for _, v := range p.LogOdds {
		w.tsvw.WriteFloat64(v, 'g', -1)
	}
	return w.tsvw.EndLine()
}

// Flush writes buffered output to the underlying writer.
func (w *ProfileWriter) Flush() error {
	return w.tsvw.Flush()
}

// Compute writes the profile of every locus scanned from loci.
func Compute(loci *interval.LocusScanner, agg *Aggregator, out *ProfileWriter) error {
	var (
		prevKey string
		seen    = map[string]bool{}
		warned  = map[string]bool{}
		profile Profile
		nLoci   int
	)
	for loci.Scan() {
		l := loci.Locus()
		key := l.Chrom + ";" + LocusStrand(l.Strand).String()
		if key != prevKey {
			if seen[key] && !warned[key] {
				log.Printf("locus: line %d: %s appears again after other chromosome/strand loci; input is not grouped and its index is rebuilt", loci.LineIdx(), key)
				warned[key] = true
			}
			seen[key] = true
			prevKey = key
		}
		sums, err := agg.Sum(l)
		if err != nil {
			// Keep the profiles already written.
			if e := out.Flush(); e != nil {
				log.Error.Printf("locus: flush: %v", e)
			}
			return errors.E(err, "locus", l.Name, "line", strconv.Itoa(loci.LineIdx()))
		}
		profile.Name = l.Name
		profile.LogOdds = Normalize(sums, l.Len())
		if err = out.Write(&profile); err != nil {
			return err
		}
		nLoci++
	}
	if err := loci.Err(); err != nil {
		return err
	}
	log.Printf("locus: wrote %d profiles, %d index rebuilds", nLoci, agg.NRebuild())
	return out.Flush()
}

// Run writes a profile for each locus of the BED file at bedPath to out,
// using the length-vector files prefix.plus and prefix.minus and their
// chromosome indexes.
func Run(ctx context.Context, bedPath, prefix string, out io.Writer, opts *Opts) (err error) {
	loci, closeLoci, err := interval.OpenLoci(ctx, bedPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeLoci(); e != nil && err == nil {
			err = e
		}
	}()

	var (
		sources [pileup.NStrand]LineSource
		entries [pileup.NStrand][]lenvec.IndexEntry
	)
	for i, suffix := range [pileup.NStrand]string{".plus", ".minus"} {
		path := prefix + suffix
		var f file.File
		if f, err = file.Open(ctx, path); err != nil {
			return errors.E(err, "could not open lenvector file", path)
		}
		defer file.CloseAndReport(ctx, f, &err)
		sources[i] = lenvec.NewLineReader(f.Reader(ctx))
		if entries[i], err = lenvec.ReadIndexFile(ctx, path+lenvec.IndexSuffix); err != nil {
			return err
		}
	}
	idx := lenvec.NewStrandedIndex(entries[0], entries[1])
	log.Printf("locus: %d chromosome/strand blocks indexed", idx.Len())
	agg := NewAggregator(sources[0], sources[1], idx, opts.Stride)
	return Compute(loci, agg, NewProfileWriter(out, opts.MinReadLen))
}
