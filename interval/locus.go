package interval

import (
	"bufio"
	"context"
	"io"
	"math"
	"strconv"

	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/util"
	"github.com/pkg/errors"
)

// PosType is the type used to represent interval coordinates.  int32 should be
// wide enough for some time to come, since that's what BAM is limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Number of leading columns of a locus line that carry meaning.
const nLocusColumns = 6

// Locus is a single line of a BED6 file, with 0-based half-open coordinates.
type Locus struct {
	Chrom  string
	Start  PosType
	End    PosType
	Name   string
	Score  int
	Strand string
}

// Len returns End - Start.
func (l *Locus) Len() int {
	return int(l.End) - int(l.Start)
}

// splitTabs identifies up to the first len(tokens) tab-delimited fields of
// curLine, returning the number of fields saved.  Unlike whitespace splitting,
// empty fields are preserved, and spaces may appear inside a field (locus
// names frequently contain them).
func splitTabs(tokens [][]byte, curLine []byte) int {
	pos := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		if pos > lineLen {
			return tokenIdx
		}
		end := pos
		for ; end != lineLen; end++ {
			if curLine[end] == '\t' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:end]
		pos = end + 1
	}
	return len(tokens)
}

// atoiOrZero parses a decimal integer, returning 0 if b is not one.
func atoiOrZero(b []byte) int {
	v, err := strconv.Atoi(gunsafe.BytesToString(b))
	if err != nil {
		return 0
	}
	return v
}

// ParseLocus decodes one BED6 line.  Missing trailing columns are left empty
// and malformed numbers become zero; no error is ever reported, since the
// downstream aggregation revalidates every coordinate it uses.
func ParseLocus(line []byte, l *Locus) {
	var tokens [nLocusColumns][]byte
	n := splitTabs(tokens[:], line)
	*l = Locus{}
	if n > 0 {
		l.Chrom = string(tokens[0])
	}
	if n > 1 {
		l.Start = PosType(atoiOrZero(tokens[1]))
	}
	if n > 2 {
		l.End = PosType(atoiOrZero(tokens[2]))
	}
	if n > 3 {
		l.Name = string(tokens[3])
	}
	if n > 4 {
		l.Score = atoiOrZero(tokens[4])
	}
	if n > 5 {
		l.Strand = string(tokens[5])
	}
}

// LocusScanner streams loci from a BED6 reader.  Blank lines, "#" comments,
// and "track"/"browser" header lines are skipped.
type LocusScanner struct {
	scanner *bufio.Scanner
	locus   Locus
	lineIdx int
}

// NewLocusScanner creates a LocusScanner reading from r.
func NewLocusScanner(r io.Reader) *LocusScanner {
	scanner := bufio.NewScanner(r)
	// Locus names can be long (concatenated annotations), so allow lines well
	// past bufio's 64KiB default.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &LocusScanner{scanner: scanner}
}

// Scan advances to the next locus.  It returns false at EOF or on a read
// error; check Err() afterwards.
func (s *LocusScanner) Scan() bool {
	for s.scanner.Scan() {
		s.lineIdx++
		line := s.scanner.Bytes()
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if isHeaderLine(line) {
			continue
		}
		ParseLocus(line, &s.locus)
		return true
	}
	return false
}

func isHeaderLine(line []byte) bool {
	if len(line) == 0 || line[0] == '#' {
		return true
	}
	s := gunsafe.BytesToString(line)
	return (len(s) >= 5 && s[:5] == "track") || (len(s) >= 7 && s[:7] == "browser")
}

// Locus returns the most recently scanned locus.  The returned pointer is
// overwritten by the next Scan call.
func (s *LocusScanner) Locus() *Locus {
	return &s.locus
}

// LineIdx returns the 1-based input line number of the current locus.
func (s *LocusScanner) LineIdx() int {
	return s.lineIdx
}

// Err returns the first non-EOF error encountered by the scanner.
func (s *LocusScanner) Err() error {
	return s.scanner.Err()
}

// OpenLoci opens a (possibly gzipped) BED6 file for scanning.  The returned
// close function must be called once the scanner is no longer needed.
func OpenLoci(ctx context.Context, path string) (*LocusScanner, func() error, error) {
	in, err := util.OpenInput(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not open BED file %s", path)
	}
	return NewLocusScanner(in.Reader()), in.Close, nil
}
