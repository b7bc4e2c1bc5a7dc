package lenvec_test

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/pileup"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/stretchr/testify/require"
)

const testRows = "chr1\t+\t10\t1\t0\n" +
	"chr1\t+\t11\t0.5\t2\n" +
	"chr2\t+\t3\t0\t1\n"

func TestParseRow(t *testing.T) {
	var row lenvec.Row
	lenvec.ParseRow([]byte("chr1\t-\t12345\t0.25\t3\t0"), &row)
	assert.EQ(t, row, lenvec.Row{Chrom: "chr1", Strand: pileup.StrandRev, Pos: 12345, Bins: []float64{0.25, 3, 0}})

	// Malformed numbers degrade to zero.
	lenvec.ParseRow([]byte("chr1\t+\tx12\tbad\t1e0"), &row)
	assert.EQ(t, row, lenvec.Row{Chrom: "chr1", Strand: pileup.StrandFwd, Pos: 0, Bins: []float64{0, 1}})

	lenvec.ParseRow([]byte("chrM\t?\t7"), &row)
	assert.EQ(t, row.Strand, pileup.StrandNone)
	assert.EQ(t, len(row.Bins), 0)
}

func TestParseKey(t *testing.T) {
	chrom, strand, pos, bins := lenvec.ParseKey([]byte("chr7\t+\t99\t1\t2"))
	assert.EQ(t, string(chrom), "chr7")
	assert.EQ(t, strand, pileup.StrandFwd)
	assert.EQ(t, pos, lenvec.PosType(99))
	assert.EQ(t, string(bins), "1\t2")
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := lenvec.NewWriter(&buf)
	assert.NoError(t, w.Write(&lenvec.Row{Chrom: "chr1", Strand: pileup.StrandFwd, Pos: 10, Bins: []float64{1, 0}}))
	assert.NoError(t, w.Write(&lenvec.Row{Chrom: "chr1", Strand: pileup.StrandRev, Pos: 11, Bins: []float64{0.5, 2}}))
	assert.NoError(t, w.Flush())
	assert.EQ(t, buf.String(), "chr1\t+\t10\t1\t0\nchr1\t-\t11\t0.5\t2\n")

	var row lenvec.Row
	lenvec.ParseRow([]byte(strings.Split(buf.String(), "\n")[1]), &row)
	assert.EQ(t, row.Bins, []float64{0.5, 2})
}

func TestGenerateIndex(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, lenvec.GenerateIndex(&out, strings.NewReader(testRows)))
	chr2Off := len("chr1\t+\t10\t1\t0\n") + len("chr1\t+\t11\t0.5\t2\n")
	assert.EQ(t, out.String(), "chr1\t0\nchr2\t"+strconv.Itoa(chr2Off)+"\n")

	entries, err := lenvec.ReadIndex(&out)
	assert.NoError(t, err)
	assert.EQ(t, entries, []lenvec.IndexEntry{{"chr1", 0}, {"chr2", int64(chr2Off)}})
}

func TestGenerateIndexEmptyAndUnterminated(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, lenvec.GenerateIndex(&out, strings.NewReader("")))
	assert.EQ(t, out.String(), "")

	out.Reset()
	assert.NoError(t, lenvec.GenerateIndex(&out, strings.NewReader("chr1\t+\t1\t1\n\nchr3\t+\t1\t1")))
	assert.EQ(t, out.String(), "chr1\t0\nchr3\t12\n")
}

func TestIndexFile(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	ctx := vcontext.Background()
	path := filepath.Join(tmpdir, "reads.plus")
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	_, err = out.Writer(ctx).Write([]byte(testRows))
	assert.NoError(t, err)
	assert.NoError(t, out.Close(ctx))

	assert.NoError(t, lenvec.IndexFile(ctx, path))
	entries, err := lenvec.ReadIndexFile(ctx, path+lenvec.IndexSuffix)
	assert.NoError(t, err)
	assert.EQ(t, len(entries), 2)
	assert.EQ(t, entries[1].Chrom, "chr2")

	_, err = lenvec.ReadIndexFile(ctx, filepath.Join(tmpdir, "missing.idx"))
	require.Error(t, err)
}

func TestStrandedIndex(t *testing.T) {
	idx := lenvec.NewStrandedIndex(
		[]lenvec.IndexEntry{{"chr1", 0}, {"chr2", 40}},
		[]lenvec.IndexEntry{{"chr2", 0}})
	assert.EQ(t, idx.Len(), 3)

	off, err := idx.Lookup("chr2", pileup.StrandFwd)
	assert.NoError(t, err)
	assert.EQ(t, off, int64(40))
	off, err = idx.Lookup("chr2", pileup.StrandRev)
	assert.NoError(t, err)
	assert.EQ(t, off, int64(0))

	_, err = idx.Lookup("chr1", pileup.StrandRev)
	require.Error(t, err)
	assert.True(t, errors.Is(errors.NotExist, err))
	_, err = idx.Lookup("chr1", pileup.StrandNone)
	assert.True(t, errors.Is(errors.NotExist, err))
}

func TestLineReader(t *testing.T) {
	data := "first\r\nsecond line\n\nlast"
	r := lenvec.NewLineReader(strings.NewReader(data))
	var lines []string
	var starts []int64
	for {
		line, start, err := r.ReadLine()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		lines = append(lines, string(line))
		starts = append(starts, start)
	}
	assert.EQ(t, lines, []string{"first", "second line", "", "last"})
	assert.EQ(t, starts, []int64{0, 7, 19, 20})
	assert.EQ(t, r.Offset(), int64(len(data)))

	// Seeking back to a recorded offset replays from that line.
	assert.NoError(t, r.SeekLine(7))
	line, start, err := r.ReadLine()
	assert.NoError(t, err)
	assert.EQ(t, string(line), "second line")
	assert.EQ(t, start, int64(7))

	assert.NotNil(t, r.SeekLine(-1))
	// Line seeking takes only an offset, so LineReader must not pose as an
	// io.Seeker.
	_, isSeeker := interface{}(r).(io.Seeker)
	assert.False(t, isSeeker)
}

func TestWriterFloatFormat(t *testing.T) {
	var buf bytes.Buffer
	w := lenvec.NewWriter(&buf)
	assert.NoError(t, w.Write(&lenvec.Row{Chrom: "chr3", Strand: pileup.StrandFwd, Pos: 7, Bins: []float64{1.0 / 3, 0, 1e-7, 12}}))
	assert.NoError(t, w.Flush())
	assert.EQ(t, buf.String(), "chr3\t+\t7\t0.3333333333333333\t0\t1e-07\t12\n")
}

func TestLineReaderLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	r := lenvec.NewLineReader(bytes.NewReader([]byte(long + "\nshort\n")))
	line, start, err := r.ReadLine()
	assert.NoError(t, err)
	assert.EQ(t, len(line), len(long))
	assert.EQ(t, start, int64(0))
	line, start, err = r.ReadLine()
	assert.NoError(t, err)
	assert.EQ(t, string(line), "short")
	assert.EQ(t, start, int64(len(long)+1))
	_, _, err = r.ReadLine()
	assert.EQ(t, err, io.EOF)
}
