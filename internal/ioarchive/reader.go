package ioarchive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	readBufferSize = 1 << 16
	bom            = "\ufeff"
)

// ChunkReader reads a tab-delimited data file in batches of rows.
// The header is read once at creation. Fields are split on tabs only,
// there is no quoting. Every row must have as many fields as the header.
type ChunkReader struct {
	name      string
	br        *bufio.Reader
	closer    io.Closer
	header    []string
	batchSize int
	line      int
	done      bool
}

// NewChunkReader reads the header line of r and prepares batches of at
// most batchSize rows.
func NewChunkReader(r io.Reader, name string, batchSize int) (*ChunkReader, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	res := &ChunkReader{
		name:      name,
		br:        bufio.NewReaderSize(r, readBufferSize),
		batchSize: batchSize,
	}

	line, err := res.readLine()
	if errors.Is(err, io.EOF) {
		err = errors.New("file is empty, header line is missing")
		return nil, ReadEntryError(name, err)
	}
	if err != nil {
		return nil, err
	}
	res.header = strings.Split(strings.TrimPrefix(line, bom), "\t")
	return res, nil
}

// Header returns field names of the file.
func (c *ChunkReader) Header() []string {
	return c.header
}

// Line returns the number of lines read so far, header included.
func (c *ChunkReader) Line() int {
	return c.line
}

// Next returns the next batch of rows. Only the last batch may be
// shorter than the batch size. After the last batch Next returns io.EOF.
func (c *ChunkReader) Next() ([][]string, error) {
	if c.done {
		return nil, io.EOF
	}

	batch := make([][]string, 0, c.batchSize)
	for len(batch) < c.batchSize {
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != len(c.header) {
			return nil, RowShapeError(c.name, c.line, len(fields), len(c.header))
		}
		batch = append(batch, fields)
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Close closes the underlying archive entry, if the reader owns it.
func (c *ChunkReader) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func (c *ChunkReader) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", ReadEntryError(c.name, err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", io.EOF
	}
	c.line++

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if !utf8.ValidString(line) {
		err = fmt.Errorf("line %d is not valid UTF-8", c.line)
		return "", ReadEntryError(c.name, err)
	}
	return line, nil
}
