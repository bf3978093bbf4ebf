package ingest

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark, which spreadsheet exports
// on Windows commonly add.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(utf8BOM))
	if bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// countingReader reports bytes consumed so uploads can show progress.
type countingReader struct {
	r        io.Reader
	read     int64
	total    int64
	progress func(read, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if n > 0 && c.progress != nil {
		c.progress(c.read, c.total)
	}
	return n, err
}

// wrap applies BOM stripping then byte counting. Invalid UTF-8 is replaced
// per line by the scanner loop.
func wrap(r io.Reader, total int64, progress func(read, total int64)) io.Reader {
	return &countingReader{r: skipBOM(r), total: total, progress: progress}
}
