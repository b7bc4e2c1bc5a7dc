package lenvec

import (
	"bytes"
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/pileup"
)

// PosType is the integer type used to represent genomic positions.
type PosType = pileup.PosType

// Row is one line of a length-vector file: the weighted count of reads of
// each length in [minLen, maxLen] covering Pos.  Bins[i] corresponds to read
// length minLen+i.
type Row struct {
	Chrom  string
	Strand pileup.StrandType
	Pos    PosType
	Bins   []float64
}

// RowWriter consumes length-vector rows.  Implementations must not retain
// row after Write returns; the caller reuses it.
type RowWriter interface {
	Write(row *Row) error
}

// nextField returns the bytes before the next tab and the remainder after
// it.  ok is false if line is exhausted.
func nextField(line []byte) (field, rest []byte, ok bool) {
	if line == nil {
		return nil, nil, false
	}
	if i := bytes.IndexByte(line, '\t'); i >= 0 {
		return line[:i], line[i+1:], true
	}
	return line, nil, true
}

// ParseKey decodes the chromosome, strand and position columns of a
// length-vector line without touching the bins.  bins is the unparsed
// remainder.  chrom aliases line.
//
// A malformed position decodes as zero.
func ParseKey(line []byte) (chrom []byte, strand pileup.StrandType, pos PosType, bins []byte) {
	chrom, rest, _ := nextField(line)
	strandField, rest, _ := nextField(rest)
	strand = pileup.ParseStrand(strandField)
	posField, rest, ok := nextField(rest)
	if ok {
		if v, err := strconv.ParseInt(gunsafe.BytesToString(posField), 10, 32); err == nil {
			pos = PosType(v)
		}
	}
	return chrom, strand, pos, rest
}

// ParseBins appends the tab-separated values in b to dst[:0] and returns the
// result.  Malformed values decode as zero.
func ParseBins(dst []float64, b []byte) []float64 {
	dst = dst[:0]
	for {
		field, rest, ok := nextField(b)
		if !ok {
			return dst
		}
		v, err := strconv.ParseFloat(gunsafe.BytesToString(field), 64)
		if err != nil {
			v = 0
		}
		dst = append(dst, v)
		b = rest
	}
}

// ParseRow decodes a full length-vector line into row, reusing row.Bins.
func ParseRow(line []byte, row *Row) {
	chrom, strand, pos, bins := ParseKey(line)
	if row.Chrom != gunsafe.BytesToString(chrom) {
		row.Chrom = string(chrom)
	}
	row.Strand = strand
	row.Pos = pos
	row.Bins = ParseBins(row.Bins, bins)
}

// Writer writes rows in the tab-separated length-vector format:
//   chrom strand pos bin_0 ... bin_{k-1}
type Writer struct {
	tsvw *tsv.Writer
}

// NewWriter creates a Writer.  Flush must be called once all rows are
// written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{tsvw: tsv.NewWriter(w)}
}

// Write implements RowWriter.
func (w *Writer) Write(row *Row) error {
	w.tsvw.WriteString(row.Chrom)
	w.tsvw.WriteByte(pileup.StrandTypeToASCIITable[row.Strand])
	w.tsvw.WriteUint32(uint32(row.Pos))
	for _, v := range row.Bins {
		w.tsvw.WriteFloat64(v, 'g', -1)
	}
	return w.tsvw.EndLine()
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.tsvw.Flush()
}
