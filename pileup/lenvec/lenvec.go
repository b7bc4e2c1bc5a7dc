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
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	elenvec "github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/pileup"
)

type Opts struct {
	// Commandline options.
	MinLength   int
	MaxLength   int
	FlagExclude int
	Mapq        int
	Parallelism int
}

var DefaultOpts = Opts{
	MinLength:   18,
	MaxLength:   30,
	FlagExclude: int(sam.Unmapped),
	Mapq:        0,
	Parallelism: 1,
}

var nhTag = sam.Tag{'N', 'H'}

// readWeight returns 1/NH, the share of this read attributed to this
// alignment.  Records without a usable NH tag count as uniquely mapped.
func readWeight(samr *sam.Record) float64 {
	aux := samr.AuxFields.Get(nhTag)
	if aux == nil {
		return 1
	}
	var nh float64
	switch v := aux.Value().(type) {
	case int8:
		nh = float64(v)
	case uint8:
		nh = float64(v)
	case int16:
		nh = float64(v)
	case uint16:
		nh = float64(v)
	case int32:
		nh = float64(v)
	case uint32:
		nh = float64(v)
	case int:
		nh = float64(v)
	case float32:
		nh = float64(v)
	case float64:
		nh = v
	}
	if nh <= 0 {
		return 1
	}
	return 1 / nh
}

// readLength returns the sequenced length of the read, which is what the
// length bins classify.  Records with SEQ "*" fall back to the CIGAR query
// length.
func readLength(samr *sam.Record) int {
	if samr.Seq.Length > 0 {
		return samr.Seq.Length
	}
	_, queryLen := samr.Cigar.Lengths()
	return queryLen
}

// strandWriters holds the per-strand outputs.  Index with
// StrandType.StrandIndex().
type strandWriters [pileup.NStrand]elenvec.RowWriter

// refState holds the two windows of the reference being processed.
type refState struct {
	ref     *sam.Reference
	windows [pileup.NStrand]*Window
	nRead   int
}

func (s *refState) finish() error {
	for _, w := range s.windows {
		if w == nil {
			continue
		}
		if err := w.Finish(); err != nil {
			return err
		}
	}
	if s.ref != nil {
		log.Debug.Printf("lenvec: %s: %d reads", s.ref.Name(), s.nRead)
	}
	return nil
}

func (s *refState) next(ref *sam.Reference, writers *strandWriters, opts *Opts) {
	s.ref = ref
	s.nRead = 0
	for i, strand := range [pileup.NStrand]pileup.StrandType{pileup.StrandFwd, pileup.StrandRev} {
		s.windows[i] = NewWindow(ref.Name(), strand, opts.MinLength, opts.MaxLength, writers[i])
	}
	log.Printf("lenvec: processing %s", ref.Name())
}

// Generate reads a coordinate-sorted BAM from r and writes one length-vector
// row per covered position to the writer of the read's strand.
func Generate(r io.Reader, plus, minus elenvec.RowWriter, opts *Opts) error {
	if opts.MinLength > opts.MaxLength {
		return errors.E(errors.Invalid, fmt.Sprintf("min length %d exceeds max length %d", opts.MinLength, opts.MaxLength))
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	bamr, err := bam.NewReader(r, parallelism)
	if err != nil {
		return err
	}
	writers := strandWriters{plus, minus}
	var state refState
	for {
		samr, err := bamr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if samr.Ref == nil || samr.Pos < 0 || (opts.FlagExclude&int(samr.Flags) != 0) || (opts.Mapq > int(samr.MapQ)) {
			sam.PutInFreePool(samr)
			continue
		}
		if samr.Ref != state.ref {
			if err = state.finish(); err != nil {
				return err
			}
			state.next(samr.Ref, &writers, opts)
		}
		strand := pileup.GetStrand(samr)
		w := state.windows[strand.StrandIndex()]
		if err = w.Add(PosType(samr.Pos), readLength(samr), readWeight(samr)); err != nil {
			return err
		}
		state.nRead++
		sam.PutInFreePool(samr)
	}
	if err = state.finish(); err != nil {
		return err
	}
	return bamr.Close()
}

// Compute reads the BAM at bampath and writes the plus- and minus-strand
// length-vector files.
func Compute(ctx context.Context, bampath, plusPath, minusPath string, opts *Opts) (err error) {
	in, err := file.Open(ctx, bampath)
	if err != nil {
		return errors.E(err, "failed to open BAM file", bampath)
	}
	defer file.CloseAndReport(ctx, in, &err)

	var outs [pileup.NStrand]file.File
	for i, path := range [pileup.NStrand]string{plusPath, minusPath} {
		if outs[i], err = file.Create(ctx, path); err != nil {
			return errors.E(err, "failed to open file for writing", path)
		}
		defer file.CloseAndReport(ctx, outs[i], &err)
	}
	plus := elenvec.NewWriter(outs[0].Writer(ctx))
	minus := elenvec.NewWriter(outs[1].Writer(ctx))
	if err = Generate(in.Reader(ctx), plus, minus, opts); err != nil {
		return err
	}
	if err = plus.Flush(); err != nil {
		return err
	}
	return minus.Flush()
}
