package lenvec

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/smrna/pileup"
)

// IndexSuffix is appended to a length-vector path to name its chromosome
// index.
const IndexSuffix = ".idx"

// IndexEntry is one line of a chromosome index: the byte offset of the first
// line of Chrom's block in a length-vector file.
type IndexEntry struct {
	Chrom  string
	Offset int64
}

// GenerateIndex reads a length-vector file from in and writes its chromosome
// index to out, one "chrom\toffset" line per chromosome in file order.
//
// Rows of a chromosome must be contiguous; this is assumed, not checked.  A
// chromosome that reappears later simply gets a second entry, and readers
// keep the last one.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		tsvOut  = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		prevChr []byte
		cumByte int64
		eof     bool
	)
	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	for !eof && err == nil {
		lineStart := cumByte
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			setErr(e)
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		chr := line
		if i := bytes.IndexByte(line, '\t'); i >= 0 {
			chr = line[:i]
		}
		if prevChr == nil || !bytes.Equal(chr, prevChr) {
			tsvOut.WriteString(string(chr))
			tsvOut.WriteString(strconv.FormatInt(lineStart, 10))
			setErr(tsvOut.EndLine())
			prevChr = append(prevChr[:0], chr...)
		}
	}
	setErr(tsvOut.Flush())
	return
}

// IndexFile writes path+IndexSuffix for the length-vector file at path.
func IndexFile(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "could not open input file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	outPath := path + IndexSuffix
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return errors.E(err, "could not open output file", outPath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, "indexing", path)
	}
	log.Printf("lenvec: wrote %s", outPath)
	return nil
}

// ReadIndex parses a chromosome index written by GenerateIndex.
func ReadIndex(r io.Reader) ([]IndexEntry, error) {
	tsvReader := tsv.NewReader(r)
	var entries []IndexEntry
	for {
		var entry IndexEntry
		if err := tsvReader.Read(&entry); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadIndexFile reads the chromosome index at path.
func ReadIndexFile(ctx context.Context, path string) (entries []IndexEntry, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "could not find index file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if entries, err = ReadIndex(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "reading index", path)
	}
	return entries, nil
}

type strandedKey struct {
	chrom  string
	strand pileup.StrandType
}

// StrandedIndex maps (chromosome, strand) to the offset of that block in
// the strand's length-vector file.
type StrandedIndex struct {
	offsets map[strandedKey]int64
}

// NewStrandedIndex combines the chromosome indexes of the plus- and
// minus-strand length-vector files.
func NewStrandedIndex(plus, minus []IndexEntry) *StrandedIndex {
	idx := &StrandedIndex{offsets: make(map[strandedKey]int64, len(plus)+len(minus))}
	for _, e := range plus {
		idx.offsets[strandedKey{e.Chrom, pileup.StrandFwd}] = e.Offset
	}
	for _, e := range minus {
		idx.offsets[strandedKey{e.Chrom, pileup.StrandRev}] = e.Offset
	}
	return idx
}

// Len returns the number of (chromosome, strand) blocks indexed.
func (idx *StrandedIndex) Len() int {
	return len(idx.offsets)
}

// Lookup returns the start offset of chrom's block in the strand's file.  An
// errors.NotExist error is returned if the block is absent.
func (idx *StrandedIndex) Lookup(chrom string, strand pileup.StrandType) (int64, error) {
	off, ok := idx.offsets[strandedKey{chrom, strand}]
	if !ok {
		return 0, errors.E(errors.NotExist, "could not find start position for "+chrom+";"+strand.String()+" in index")
	}
	return off, nil
}
