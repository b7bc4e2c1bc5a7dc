package lenvec_test

import (
	"math/rand"
	"testing"

	elenvec "github.com/grailbio/smrna/encoding/lenvec"
	"github.com/grailbio/smrna/pileup"
	"github.com/grailbio/smrna/pileup/lenvec"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// rowCollector keeps a copy of every row it is given.
type rowCollector struct {
	rows []elenvec.Row
}

func (c *rowCollector) Write(row *elenvec.Row) error {
	r := *row
	r.Bins = append([]float64(nil), row.Bins...)
	c.rows = append(c.rows, r)
	return nil
}

type testRead struct {
	start  lenvec.PosType
	length int
	weight float64
}

func runWindow(t *testing.T, minLen, maxLen int, reads []testRead) []elenvec.Row {
	var c rowCollector
	w := lenvec.NewWindow("chr1", pileup.StrandFwd, minLen, maxLen, &c)
	for _, r := range reads {
		assert.NoError(t, w.Add(r.start, r.length, r.weight))
	}
	assert.NoError(t, w.Finish())
	assert.EQ(t, w.Len(), 0)
	return c.rows
}

func positions(rows []elenvec.Row) []lenvec.PosType {
	var pos []lenvec.PosType
	for _, r := range rows {
		pos = append(pos, r.Pos)
	}
	return pos
}

func TestWindowOverlap(t *testing.T) {
	rows := runWindow(t, 3, 3, []testRead{{0, 3, 1}, {1, 3, 1}})
	assert.EQ(t, positions(rows), []lenvec.PosType{0, 1, 2, 3})
	var got []float64
	for _, r := range rows {
		expect.EQ(t, r.Chrom, "chr1")
		expect.EQ(t, r.Strand, pileup.StrandFwd)
		got = append(got, r.Bins[0])
	}
	assert.EQ(t, got, []float64{1, 2, 2, 1})
}

func TestWindowFinishDrains(t *testing.T) {
	rows := runWindow(t, 1, 5, []testRead{{10, 5, 1}})
	assert.EQ(t, positions(rows), []lenvec.PosType{10, 11, 12, 13, 14})
	for _, r := range rows {
		assert.EQ(t, r.Bins, []float64{0, 0, 0, 0, 1})
	}
}

func TestWindowFinishUsesLongestRead(t *testing.T) {
	// The long read arrives first; the drain must still reach its end.
	rows := runWindow(t, 1, 10, []testRead{{0, 10, 1}, {2, 2, 1}})
	assert.EQ(t, len(rows), 10)
	assert.EQ(t, rows[9].Pos, lenvec.PosType(9))
	assert.EQ(t, rows[9].Bins[9], 1.0)
	assert.EQ(t, rows[2].Bins[1], 1.0)
	assert.EQ(t, rows[4].Bins[1], 0.0)
}

func TestWindowSameStart(t *testing.T) {
	rows := runWindow(t, 2, 4, []testRead{{5, 2, 0.5}, {5, 2, 0.5}, {5, 4, 1}})
	assert.EQ(t, positions(rows), []lenvec.PosType{5, 6, 7, 8})
	assert.EQ(t, rows[0].Bins, []float64{1, 0, 1})
	assert.EQ(t, rows[1].Bins, []float64{1, 0, 1})
	assert.EQ(t, rows[2].Bins, []float64{0, 0, 1})
}

func TestWindowGap(t *testing.T) {
	rows := runWindow(t, 2, 2, []testRead{{0, 2, 1}, {1000000, 2, 1}})
	assert.EQ(t, positions(rows), []lenvec.PosType{0, 1, 1000000, 1000001})
}

func TestWindowOutOfRangeLength(t *testing.T) {
	// Reads outside [min, max] produce no rows, but do not disturb in-range
	// reads.
	rows := runWindow(t, 18, 20, []testRead{{0, 40, 1}, {3, 18, 1}, {100, 10, 1}})
	assert.EQ(t, len(rows), 18)
	assert.EQ(t, rows[0].Pos, lenvec.PosType(3))
	for _, r := range rows {
		assert.EQ(t, r.Bins, []float64{1, 0, 0})
	}
}

func TestWindowZeroWeight(t *testing.T) {
	rows := runWindow(t, 1, 3, []testRead{{0, 3, 0}})
	assert.EQ(t, len(rows), 0)
}

func TestWindowEmptyFinish(t *testing.T) {
	assert.EQ(t, len(runWindow(t, 1, 3, nil)), 0)
}

// TestWindowRandom compares the window to a direct per-position tally, and
// checks that each bin's total is length*weight summed over its reads.
func TestWindowRandom(t *testing.T) {
	const (
		minLen = 18
		maxLen = 30
	)
	rng := rand.New(rand.NewSource(0))
	for iter := 0; iter < 20; iter++ {
		var reads []testRead
		pos := lenvec.PosType(rng.Intn(100))
		for i := 0; i < 500; i++ {
			pos += lenvec.PosType(rng.Intn(20))
			if rng.Intn(50) == 0 {
				pos += 5000
			}
			reads = append(reads, testRead{
				start:  pos,
				length: 15 + rng.Intn(20),
				weight: 1 / float64(1+rng.Intn(4)),
			})
		}
		rows := runWindow(t, minLen, maxLen, reads)

		want := map[lenvec.PosType][]float64{}
		var wantMass [maxLen - minLen + 1]float64
		for _, r := range reads {
			if r.length < minLen || r.length > maxLen {
				continue
			}
			wantMass[r.length-minLen] += float64(r.length) * r.weight
			for p := r.start; p < r.start+lenvec.PosType(r.length); p++ {
				if want[p] == nil {
					want[p] = make([]float64, maxLen-minLen+1)
				}
				want[p][r.length-minLen] += r.weight
			}
		}
		assert.EQ(t, len(rows), len(want))
		var gotMass [maxLen - minLen + 1]float64
		prev := lenvec.PosType(-1)
		for _, row := range rows {
			assert.True(t, row.Pos > prev)
			prev = row.Pos
			wantBins, ok := want[row.Pos]
			assert.True(t, ok, "unexpected row at %d", row.Pos)
			for i := range row.Bins {
				expect.True(t, abs(row.Bins[i]-wantBins[i]) < 1e-9, "pos %d bin %d: got %v want %v", row.Pos, i, row.Bins[i], wantBins[i])
				gotMass[i] += row.Bins[i]
			}
		}
		for i := range gotMass {
			expect.True(t, abs(gotMass[i]-wantMass[i]) < 1e-6, "bin %d mass: got %v want %v", i, gotMass[i], wantMass[i])
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
