//go:build linux

package tools

import (
	"os"
	"syscall"
	"time"
)

func statTimes(info os.FileInfo) (accessed, changed time.Time) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Atim.Sec, stat.Atim.Nsec),
			time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return info.ModTime(), info.ModTime()
}
