// Package util holds the path helpers shared by the command-line tools.
package util

import (
	"context"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// IsStdio reports whether path names standard input or output.
func IsStdio(path string) bool {
	return path == "" || path == "-"
}

// Output is a writable destination opened by CreateOutput.
type Output struct {
	ctx   context.Context
	f     file.File
	bgzfw *bgzf.Writer
	w     io.Writer
}

// CreateOutput opens path for writing.  "" and "-" mean standard output, and
// a path ending in ".gz" is bgzf-compressed using parallelism goroutines.
func CreateOutput(ctx context.Context, path string, parallelism int) (*Output, error) {
	if IsStdio(path) {
		return &Output{ctx: ctx, w: os.Stdout}, nil
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "could not open file for writing", path)
	}
	out := &Output{ctx: ctx, f: f, w: f.Writer(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		if parallelism < 1 {
			parallelism = 1
		}
		out.bgzfw = bgzf.NewWriter(out.w, parallelism)
		out.w = out.bgzfw
	}
	return out, nil
}

// Writer returns the destination to write to.
func (o *Output) Writer() io.Writer {
	return o.w
}

// Close flushes compressed output and closes the file.  Standard output is
// left open.
func (o *Output) Close() error {
	e := errors.Once{}
	if o.bgzfw != nil {
		e.Set(o.bgzfw.Close())
	}
	if o.f != nil {
		e.Set(o.f.Close(o.ctx))
	}
	return e.Err()
}

// Input is a readable source opened by OpenInput.
type Input struct {
	ctx context.Context
	f   file.File
	gz  *gzip.Reader
	r   io.Reader
}

// OpenInput opens path for reading, decompressing it if it is gzipped.  ""
// and "-" mean standard input.
func OpenInput(ctx context.Context, path string) (*Input, error) {
	if IsStdio(path) {
		return &Input{ctx: ctx, r: os.Stdin}, nil
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "could not open file", path)
	}
	in := &Input{ctx: ctx, f: f, r: f.Reader(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		if in.gz, err = gzip.NewReader(in.r); err != nil {
			_ = f.Close(ctx)
			return nil, errors.E(err, "could not read gzipped file", path)
		}
		in.r = in.gz
	}
	return in, nil
}

// Reader returns the source to read from.
func (in *Input) Reader() io.Reader {
	return in.r
}

// Close closes the input.  Standard input is left open.
func (in *Input) Close() error {
	e := errors.Once{}
	if in.gz != nil {
		e.Set(in.gz.Close())
	}
	if in.f != nil {
		e.Set(in.f.Close(in.ctx))
	}
	return e.Err()
}
