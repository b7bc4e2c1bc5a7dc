package lenvec_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/smrna/pileup/lenvec"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
)

func newAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(err)
	}
	return aux
}

func newRead(name string, ref *sam.Reference, pos int, seq string, flags sam.Flags, nh int) sam.Record {
	r := sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		MapQ:  60,
		Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(seq))},
		Flags: flags,
		Seq:   sam.NewSeq([]byte(seq)),
		Qual:  bytes.Repeat([]byte{40}, len(seq)),
	}
	if nh > 0 {
		r.AuxFields = sam.AuxFields{newAux("NH", nh)}
	}
	return r
}

func TestCompute(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	chr1, _ := sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _ := sam.NewReference("chr2", "", "", 1000, nil, nil)
	samHeader, _ := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	reads := []sam.Record{
		newRead("a", chr1, 10, "ACG", 0, 0),
		newRead("b", chr1, 11, "ACG", 0, 2),
		newRead("c", chr1, 11, "ACGT", sam.Reverse, 1),
		newRead("d", chr1, 50, "ACG", sam.Unmapped, 0),
		newRead("e", chr2, 5, "AC", 0, 4),
	}

	bampath := filepath.Join(tmpdir, "reads.bam")
	out, err := file.Create(ctx, bampath)
	assert.NoError(t, err)
	bamWriter, err := bam.NewWriter(out.Writer(ctx), samHeader, 1)
	assert.NoError(t, err)
	for i := range reads {
		assert.NoError(t, bamWriter.Write(&reads[i]))
	}
	assert.NoError(t, bamWriter.Close())
	assert.NoError(t, out.Close(ctx))

	opts := lenvec.DefaultOpts
	opts.MinLength = 2
	opts.MaxLength = 4
	plusPath := filepath.Join(tmpdir, "reads.plus")
	minusPath := filepath.Join(tmpdir, "reads.minus")
	assert.NoError(t, lenvec.Compute(ctx, bampath, plusPath, minusPath, &opts))

	plus, err := ioutil.ReadFile(plusPath)
	assert.NoError(t, err)
	assert.EQ(t, string(plus), "chr1\t+\t10\t0\t1\t0\n"+
		"chr1\t+\t11\t0\t1.5\t0\n"+
		"chr1\t+\t12\t0\t1.5\t0\n"+
		"chr1\t+\t13\t0\t0.5\t0\n"+
		"chr2\t+\t5\t0.25\t0\t0\n"+
		"chr2\t+\t6\t0.25\t0\t0\n")
	minus, err := ioutil.ReadFile(minusPath)
	assert.NoError(t, err)
	assert.EQ(t, string(minus), "chr1\t-\t11\t0\t0\t1\n"+
		"chr1\t-\t12\t0\t0\t1\n"+
		"chr1\t-\t13\t0\t0\t1\n"+
		"chr1\t-\t14\t0\t0\t1\n")

	bad := opts
	bad.MinLength = 5
	err = lenvec.Compute(ctx, bampath, plusPath, minusPath, &bad)
	assert.True(t, errors.Is(errors.Invalid, err))

	err = lenvec.Compute(ctx, filepath.Join(tmpdir, "missing.bam"), plusPath, minusPath, &opts)
	assert.NotNil(t, err)
}
