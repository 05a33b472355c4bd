package iofs

import (
	"fmt"
	"runtime"

	"github.com/gnames/dwca-tools/pkg/errcode"
	"github.com/gnames/gn"
)

// caller returns the name of the function that created an error.
func caller() string {
	pc, _, _, _ := runtime.Caller(2)
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return "unknown"
}

func CreateDirError(dir string, err error) error {
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  "Cannot create directory <em>%s</em>",
		Vars: []any{dir},
		Err: fmt.Errorf("from %s: cannot create directory: %w",
			caller(), err),
	}
}

func CopyFileError(file string, err error) error {
	return &gn.Error{
		Code: errcode.CopyFileError,
		Msg:  "Cannot write default config file to <em>%s</em>",
		Vars: []any{file},
		Err: fmt.Errorf("from %s: cannot copy file: %w",
			caller(), err),
	}
}

func ReadFileError(path string, err error) error {
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  "Cannot read <em>%s</em>",
		Vars: []any{path},
		Err: fmt.Errorf("from %s: cannot read %s: %w",
			caller(), path, err),
	}
}
