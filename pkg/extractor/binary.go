package extractor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mediafetch-api-server/pkg/internal/installer"
)

// LocateBinary resolves the binary to run: an explicit path wins, then a copy installed
// by `setup`, then whatever is on PATH.
func LocateBinary(configured, name string) string {
	if configured != "" {
		return configured
	}
	if path, err := installer.BinaryPath(name); err == nil {
		return path
	}
	return name
}

// BinaryAvailable reports whether path names an executable file or a command on PATH
func BinaryAvailable(path string) bool {
	if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
		_, err := exec.LookPath(path)
		return err == nil
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if info.Mode()&0111 != 0 {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), ".exe")
}

// Install fetches yt-dlp and ffmpeg into the local bin directory, skipping binaries that
// are already available.
func Install(ctx context.Context, force bool, progressFn installer.ProgressFunc) error {
	if force || !BinaryAvailable(LocateBinary("", "yt-dlp")) {
		if _, err := installer.InstallYTDLP(ctx, progressFn); err != nil {
			return err
		}
	}
	if force || !BinaryAvailable(LocateBinary("", "ffmpeg")) {
		if _, err := installer.InstallFFMPEG(ctx, progressFn); err != nil {
			return err
		}
	}
	return nil
}
