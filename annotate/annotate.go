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

// Package annotate classifies small-RNA loci from their overlaps with an
// annotation track.  Input rows are the output of an interval intersection,
//   locus_id class amount description
// with all rows of a locus adjacent.  One summary row is written per locus.
package annotate

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/smrna/util"
)

const (
	// ClassIntergenic is the catch-all class of a locus that overlaps no
	// annotation.
	ClassIntergenic = "intergenic"
	// ClassMulti is the basic class of a locus overlapping several annotation
	// classes.
	ClassMulti = "multi"
)

// Overlap is one intersection row.
type Overlap struct {
	LocusID string
	Class   string
	Amount  int
	Desc    string
}

// ParseOverlap decodes a tab-separated overlap row.  A malformed amount is
// zero, and missing trailing columns are empty.
func ParseOverlap(line []byte) Overlap {
	var fields [4][]byte
	rest := line
	for i := range fields {
		if rest == nil {
			break
		}
		if j := bytes.IndexByte(rest, '\t'); j >= 0 {
			fields[i], rest = rest[:j], rest[j+1:]
		} else {
			fields[i], rest = rest, nil
		}
	}
	amount, err := strconv.Atoi(strings.TrimSpace(gunsafe.BytesToString(fields[2])))
	if err != nil {
		amount = 0
	}
	return Overlap{
		LocusID: string(fields[0]),
		Class:   string(fields[1]),
		Amount:  amount,
		Desc:    string(fields[3]),
	}
}

// Priorities maps a class to its rank.  Lower ranks are preferred; classes
// not in the table rank 0.
type Priorities map[string]int

// ReadPriorities parses whitespace-separated "class rank" lines.  Blank
// lines are skipped; a malformed rank is 0.
func ReadPriorities(r io.Reader) (Priorities, error) {
	p := Priorities{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rank := 0
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				rank = v
			}
		}
		p[fields[0]] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ComparePriority reports whether a sorts before b under p.
func ComparePriority(p Priorities, a, b *Overlap) bool {
	return p[a.Class] < p[b.Class]
}

// Summary is the classification of one locus.
type Summary struct {
	LocusID string
	// BasicClass is ClassMulti if more than two distinct classes overlap,
	// ClassIntergenic if only one does, and otherwise the last
	// non-intergenic class seen.
	BasicClass string
	// PrioritizedClass and PrioritizedDesc come from the best-ranked
	// overlap; ties keep input order.
	PrioritizedClass string
	PrioritizedDesc  string
	// Classes lists every distinct class in first-seen order, and Counts the
	// number of rows of each.
	Classes []string
	Counts  []int
	// Descs lists every row's description in input order.
	Descs []string
}

// AllClasses renders Classes as each class repeated once per row, every
// entry followed by a comma.
func (s *Summary) AllClasses() string {
	var b strings.Builder
	for i, c := range s.Classes {
		for j := 0; j < s.Counts[i]; j++ {
			b.WriteString(c)
			b.WriteByte(',')
		}
	}
	return b.String()
}

// AllDescs renders Descs with every entry followed by a comma.
func (s *Summary) AllDescs() string {
	var b strings.Builder
	for _, d := range s.Descs {
		b.WriteString(d)
		b.WriteByte(',')
	}
	return b.String()
}

// Classify summarizes the overlaps of one locus.  group must be nonempty.
// The order of group is changed.
func Classify(group []Overlap, p Priorities) Summary {
	s := Summary{LocusID: group[0].LocusID}
	classIdx := map[string]int{}
	for i := range group {
		o := &group[i]
		if idx, ok := classIdx[o.Class]; ok {
			s.Counts[idx]++
		} else {
			classIdx[o.Class] = len(s.Classes)
			s.Classes = append(s.Classes, o.Class)
			s.Counts = append(s.Counts, 1)
		}
		if o.Class != ClassIntergenic {
			s.BasicClass = o.Class
		}
		s.Descs = append(s.Descs, o.Desc)
	}
	switch {
	case len(s.Classes) > 2:
		s.BasicClass = ClassMulti
	case len(s.Classes) == 1:
		s.BasicClass = ClassIntergenic
	}
	sort.SliceStable(group, func(i, j int) bool { return ComparePriority(p, &group[i], &group[j]) })
	s.PrioritizedClass = group[0].Class
	s.PrioritizedDesc = group[0].Desc
	return s
}

// SummaryWriter writes summaries as
//   locus_id basic_class prioritized_class all_classes basic_desc prioritized_desc
type SummaryWriter struct {
	tsvw *tsv.Writer
}

// NewSummaryWriter creates a SummaryWriter.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{tsvw: tsv.NewWriter(w)}
}

// Write writes one summary line.
func (w *SummaryWriter) Write(s *Summary) error {
	w.tsvw.WriteString(s.LocusID)
	w.tsvw.WriteString(s.BasicClass)
	w.tsvw.WriteString(s.PrioritizedClass)
	w.tsvw.WriteString(s.AllClasses())
	w.tsvw.WriteString(s.AllDescs())
	w.tsvw.WriteString(s.PrioritizedDesc)
	return w.tsvw.EndLine()
}

// Flush writes buffered output to the underlying writer.
func (w *SummaryWriter) Flush() error {
	return w.tsvw.Flush()
}

// Annotate reads overlap rows from in and writes one summary per run of
// rows sharing a locus id.  A locus id that reappears after another one
// starts a new group.
func Annotate(in io.Reader, out io.Writer, p Priorities) error {
	var (
		scanner = bufio.NewScanner(in)
		w       = NewSummaryWriter(out)
		group   []Overlap
		nLoci   int
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		s := Classify(group, p)
		group = group[:0]
		nLoci++
		return w.Write(&s)
	}
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		o := ParseOverlap(line)
		if len(group) > 0 && o.LocusID != group[0].LocusID {
			if err := flush(); err != nil {
				return err
			}
		}
		group = append(group, o)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	log.Debug.Printf("annotate: %d loci", nLoci)
	return w.Flush()
}

// Run classifies the overlaps at inPath using the class priority table at
// priPath, and writes the summaries to out.
func Run(ctx context.Context, inPath, priPath string, out io.Writer) (err error) {
	in, err := util.OpenInput(ctx, inPath)
	if err != nil {
		return errors.E(err, "could not open intersect file", inPath)
	}
	defer func() {
		if e := in.Close(); e != nil && err == nil {
			err = e
		}
	}()
	priFile, err := file.Open(ctx, priPath)
	if err != nil {
		return errors.E(err, "could not open class priority file", priPath)
	}
	defer file.CloseAndReport(ctx, priFile, &err)
	p, err := ReadPriorities(priFile.Reader(ctx))
	if err != nil {
		return errors.E(err, "reading", priPath)
	}
	log.Printf("annotate: %d class priorities", len(p))
	return Annotate(in.Reader(), out, p)
}
