//go:build unix

package site

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func ownerOf(info os.FileInfo) (string, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("no ownership information available")
	}
	uid := strconv.FormatUint(uint64(stat.Uid), 10)
	u, err := user.LookupId(uid)
	if err != nil {
		return "", fmt.Errorf("failed to look up user %s: %w", uid, err)
	}
	return u.Username, nil
}
