package locus

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/util"
)

// PositionCounts holds the read counts at each distinct 5' and 3' end
// position of a locus.  The positions themselves are not needed.
type PositionCounts struct {
	Name     string
	Counts5p []int
	Counts3p []int
}

// ReadPositionCounts parses lines of the form
//   locus 5p|3p count
// and returns the counts grouped by locus, sorted by name.  Any end label
// other than "5p" counts as 3p, and a malformed count is zero.
func ReadPositionCounts(r io.Reader) ([]*PositionCounts, error) {
	byName := map[string]*PositionCounts{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var fields [3][]byte
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		n := 0
		for rest := line; n < len(fields); n++ {
			i := bytes.IndexByte(rest, '\t')
			if i < 0 {
				fields[n] = rest
				n++
				break
			}
			fields[n], rest = rest[:i], rest[i+1:]
		}
		for i := n; i < len(fields); i++ {
			fields[i] = nil
		}
		name := gunsafe.BytesToString(fields[0])
		pc, ok := byName[name]
		if !ok {
			pc = &PositionCounts{Name: string(fields[0])}
			byName[pc.Name] = pc
		}
		count, err := strconv.Atoi(gunsafe.BytesToString(fields[2]))
		if err != nil {
			count = 0
		}
		if string(fields[1]) == "5p" {
			pc.Counts5p = append(pc.Counts5p, count)
		} else {
			pc.Counts3p = append(pc.Counts3p, count)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	loci := make([]*PositionCounts, 0, len(byName))
	for _, pc := range byName {
		loci = append(loci, pc)
	}
	sort.Slice(loci, func(i, j int) bool { return loci[i].Name < loci[j].Name })
	return loci, nil
}

// Entropy returns the Shannon entropy, in nats, of counts normalized to a
// distribution.  Non-positive counts contribute nothing; if no count is
// positive the entropy is 0.
func Entropy(counts []int) float64 {
	var total float64
	for _, c := range counts {
		if c > 0 {
			total += float64(c)
		}
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log(p)
	}
	return h
}

// WriteEntropy writes the header
//   name pos_entropy5p pos_entropy3p
// followed by one line per locus.
func WriteEntropy(w io.Writer, loci []*PositionCounts) error {
	tsvw := tsv.NewWriter(w)
	tsvw.WriteString("name")
	tsvw.WriteString("pos_entropy5p")
	tsvw.WriteString("pos_entropy3p")
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	for _, pc := range loci {
		tsvw.WriteString(pc.Name)
		tsvw.WriteFloat64(Entropy(pc.Counts5p), 'g', -1)
		tsvw.WriteFloat64(Entropy(pc.Counts3p), 'g', -1)
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// RunEntropy reads position counts from inPath, which may be gzipped, and
// writes per-locus positional entropy to out.
func RunEntropy(ctx context.Context, inPath string, out io.Writer) (err error) {
	in, err := util.OpenInput(ctx, inPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(); e != nil && err == nil {
			err = e
		}
	}()
	loci, err := ReadPositionCounts(in.Reader())
	if err != nil {
		return errors.E(err, "reading", inPath)
	}
	return WriteEntropy(out, loci)
}
