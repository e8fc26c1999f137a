package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
)

// SysHealth represents real-time process and storage figures.
type SysHealth struct {
	AllocMB      uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	DataDiskSize string
}

// GetSysHealth collects health data; the disk size adds up every file under paths.
// A path may be a directory or a single file.
func GetSysHealth(paths ...string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var size int64
	for _, p := range paths {
		size += diskUsage(p)
	}
	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: formatBytes(size),
	}
}

func (h SysHealth) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Memory: %d MB allocated, %d MB reserved\n", h.AllocMB, h.SysMB)
	fmt.Fprintf(&b, "GC runs: %d, goroutines: %d\n", h.NumGC, h.Goroutines)
	fmt.Fprintf(&b, "Data on disk: %s", h.DataDiskSize)
	return b.String()
}

func diskUsage(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
