package endpoint

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// gzipSource adapts a gzip-compressed file into a Source, used internally
// when an Input is configured via SetCompressedFile. The engine still
// opens the underlying descriptor through platform.Ops; this wraps the
// resulting *os.File once decompression needs to start.
type gzipSource struct {
	file   *os.File
	reader *gzip.Reader
	buf    [32 * 1024]byte
	done   bool
}

// NewCompressedFileSource wraps an already-opened file descriptor (backed
// by platform.Ops.OpenRead) as a gunzip-on-read Source.
func NewCompressedFileSource(file *os.File) (Source, error) {
	r, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	return &gzipSource{file: file, reader: r}, nil
}

func (g *gzipSource) Poll(w Writer) bool {
	if g.done {
		return false
	}
	n, err := g.reader.Read(g.buf[:])
	if n > 0 {
		w.Write(g.buf[:n])
	}
	if err == io.EOF {
		g.done = true
		g.reader.Close()
		g.file.Close()
		return false
	}
	if err != nil {
		g.done = true
		g.reader.Close()
		g.file.Close()
		return false
	}
	return true
}

// gzipSink adapts a Sink into a gzip-compressed file, used internally when
// an Output is configured via SetCompressedFile.
type gzipSink struct {
	file   *os.File
	writer *gzip.Writer
}

// NewCompressedFileSink wraps an already-opened file descriptor (backed by
// platform.Ops.OpenWriteTruncate) as a gzip-on-write Sink.
func NewCompressedFileSink(file *os.File) Sink {
	return &gzipSink{file: file, writer: gzip.NewWriter(file)}
}

func (g *gzipSink) Process(data []byte) {
	g.writer.Write(data)
}

func (g *gzipSink) EOF() {
	g.writer.Close()
	g.file.Close()
}
