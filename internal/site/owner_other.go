//go:build !unix

package site

import (
	"fmt"
	"os"
	"runtime"
)

func ownerOf(os.FileInfo) (string, error) {
	return "", fmt.Errorf("file ownership lookup is not supported on %s", runtime.GOOS)
}
