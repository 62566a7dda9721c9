package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FFmpegRequirement describes the encoder used to render videos. A configured
// path that points at a non-executable file is reported as-is so the detail
// names the file the operator set.
func FFmpegRequirement(binary string) Requirement {
	cmd := strings.TrimSpace(binary)
	if cmd == "" {
		cmd = executableName("ffmpeg")
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     cmd,
		Description: "Required to render the story video",
	}
}

// CheckFFmpeg resolves the configured ffmpeg binary.
func CheckFFmpeg(binary string) Status {
	req := FFmpegRequirement(binary)
	if strings.ContainsRune(req.Command, filepath.Separator) {
		info, err := os.Stat(req.Command)
		if err != nil || !isExecutable(info) {
			return Status{
				Name:        req.Name,
				Command:     req.Command,
				Description: req.Description,
				Detail:      "not an executable file",
			}
		}
	}
	return CheckBinaries([]Requirement{req})[0]
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
