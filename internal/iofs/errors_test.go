package iofs

import (
	"errors"
	"testing"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	origErr := errors.New("permission denied")
	path := "/test/path"

	tests := []struct {
		name   string
		err    error
		code   gn.ErrorCode
		wraps  string
		caller string
	}{
		{
			name:  "create dir",
			err:   CreateDirError(path, origErr),
			code:  errcode.CreateDirError,
			wraps: "cannot create directory",
		},
		{
			name:  "copy file",
			err:   CopyFileError(path, origErr),
			code:  errcode.CopyFileError,
			wraps: "cannot copy file",
		},
		{
			name:  "read file",
			err:   ReadFileError(path, origErr),
			code:  errcode.ReadFileError,
			wraps: "cannot read " + path,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok, "error should be *gn.Error")

			assert.Equal(t, tt.code, gnErr.Code)
			assert.Contains(t, gnErr.Msg, "<em>%s</em>")
			require.Len(t, gnErr.Vars, 1)
			assert.Equal(t, path, gnErr.Vars[0])

			assert.ErrorIs(t, gnErr.Err, origErr)
			assert.Contains(t, gnErr.Err.Error(), tt.wraps)
			assert.Contains(t, gnErr.Err.Error(), "iofs.TestErrors",
				"error should name the calling function")
		})
	}
}
