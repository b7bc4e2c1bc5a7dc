package util_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/smrna/util"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/klauspost/compress/gzip"
)

func TestIsStdio(t *testing.T) {
	assert.True(t, util.IsStdio(""))
	assert.True(t, util.IsStdio("-"))
	assert.False(t, util.IsStdio("out.tsv"))
}

func TestOutputInput(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	const data = "name\tE18\nmir-1\t0\n"

	for _, name := range []string{"out.tsv", "out.tsv.gz"} {
		path := filepath.Join(tmpdir, name)
		out, err := util.CreateOutput(ctx, path, 2)
		assert.NoError(t, err)
		_, err = out.Writer().Write([]byte(data))
		assert.NoError(t, err)
		assert.NoError(t, out.Close())

		in, err := util.OpenInput(ctx, path)
		assert.NoError(t, err)
		got, err := ioutil.ReadAll(in.Reader())
		assert.NoError(t, err)
		assert.NoError(t, in.Close())
		assert.EQ(t, string(got), data)
	}

	// The .gz output is a real gzip stream.
	f, err := os.Open(filepath.Join(tmpdir, "out.tsv.gz"))
	assert.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	got, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)
	assert.EQ(t, string(got), data)

	_, err = util.OpenInput(ctx, filepath.Join(tmpdir, "missing.gz"))
	assert.NotNil(t, err)
}

func TestStdout(t *testing.T) {
	out, err := util.CreateOutput(vcontext.Background(), "-", 1)
	assert.NoError(t, err)
	assert.True(t, out.Writer() == os.Stdout)
	assert.NoError(t, out.Close())
}
