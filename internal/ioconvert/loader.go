package ioconvert

import (
	"context"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/dwca-tools/internal/ioarchive"
)

// loadJob is one table to move from an archive to the database.
type loadJob struct {
	table  string
	reader *ioarchive.ChunkReader
	// cols are stored names of transferred columns.
	cols []string
	// idx are positions of cols in the file header.
	idx []int
	bar *pb.ProgressBar
}

// loader moves rows of a table into the database.
type loader interface {
	// begin prepares the destination for a load of several tables.
	// The returned function restores the previous state and must be
	// called even if loading fails.
	begin(ctx context.Context) (func(), error)

	// load transfers all rows of a job and returns how many were stored.
	load(ctx context.Context, job *loadJob) (int64, error)
}
