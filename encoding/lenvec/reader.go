package lenvec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
)

const lineReaderBufSize = 64 * 1024

// LineReader provides seekable line-at-a-time access to a length-vector file
// (or any newline-delimited text) without loading it into memory.  It tracks
// the byte offset of every line it returns, so callers can record offsets
// while scanning and SeekLine back to them later.
//
// LineReader is not thread-safe.
type LineReader struct {
	rs  io.ReadSeeker
	br  *bufio.Reader
	off int64  // offset of the next unread byte
	buf []byte // holds lines longer than the bufio buffer
}

// NewLineReader creates a LineReader positioned at offset 0 of rs.  rs must
// be positioned at its start.
func NewLineReader(rs io.ReadSeeker) *LineReader {
	return &LineReader{
		rs: rs,
		br: bufio.NewReaderSize(rs, lineReaderBufSize),
	}
}

// SeekLine positions the reader so that the next ReadLine starts at byte off.
func (r *LineReader) SeekLine(off int64) error {
	newOff, err := r.rs.Seek(off, io.SeekStart)
	if err != nil {
		return errors.E(err, fmt.Sprintf("seek to offset %d", off))
	}
	if newOff != off {
		return errors.E(errors.Invalid, fmt.Sprintf("failed to seek to offset %d: got %d", off, newOff))
	}
	r.br.Reset(r.rs)
	r.off = off
	return nil
}

// Offset returns the offset of the next line ReadLine will return.
func (r *LineReader) Offset() int64 {
	return r.off
}

// ReadLine returns the next line with its trailing "\n" or "\r\n" removed,
// and the byte offset where the line starts.  A final line without a
// newline is returned normally; io.EOF is returned only once no bytes
// remain.  The returned slice is valid until the next ReadLine or SeekLine.
func (r *LineReader) ReadLine() (line []byte, start int64, err error) {
	start = r.off
	chunk, err := r.br.ReadSlice('\n')
	r.off += int64(len(chunk))
	if err == bufio.ErrBufferFull {
		r.buf = append(r.buf[:0], chunk...)
		for err == bufio.ErrBufferFull {
			chunk, err = r.br.ReadSlice('\n')
			r.off += int64(len(chunk))
			r.buf = append(r.buf, chunk...)
		}
		chunk = r.buf
	}
	if err == io.EOF {
		if len(chunk) == 0 {
			return nil, start, io.EOF
		}
		err = nil
	}
	if err != nil {
		return nil, start, err
	}
	n := len(chunk)
	if n > 0 && chunk[n-1] == '\n' {
		n--
		if n > 0 && chunk[n-1] == '\r' {
			n--
		}
	}
	return chunk[:n], start, nil
}
