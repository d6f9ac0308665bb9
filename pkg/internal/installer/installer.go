package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ulikunitz/xz"
)

// ProgressFunc receives human readable installation progress
type ProgressFunc func(string)

// GetBinariesDir returns the directory where binaries are stored
func GetBinariesDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	binDir := filepath.Join(homeDir, ".mediafetch", "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create bin directory: %w", err)
	}

	return binDir, nil
}

// Executable returns the platform file name of a binary
func Executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// BinaryPath returns the path of a locally installed binary, or an error if it is missing
func BinaryPath(name string) (string, error) {
	binDir, err := GetBinariesDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(binDir, Executable(name))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s not found at %s", name, path)
	}
	return path, nil
}

// InstallYTDLP downloads the latest yt-dlp release into the bin directory
func InstallYTDLP(ctx context.Context, progressFn ProgressFunc) (string, error) {
	binDir, err := GetBinariesDir()
	if err != nil {
		return "", err
	}

	var downloadURL string
	switch runtime.GOOS {
	case "linux":
		downloadURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"
	case "darwin":
		downloadURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_macos"
	case "windows":
		downloadURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp.exe"
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	destPath := filepath.Join(binDir, Executable("yt-dlp"))
	report(progressFn, "Downloading yt-dlp from %s...", downloadURL)

	if err := downloadFile(ctx, downloadURL, destPath, progressFn); err != nil {
		return "", fmt.Errorf("failed to download yt-dlp: %w", err)
	}
	if err := os.Chmod(destPath, 0755); err != nil {
		return "", fmt.Errorf("failed to make yt-dlp executable: %w", err)
	}

	report(progressFn, "yt-dlp installed at: %s", destPath)
	return destPath, nil
}

// InstallFFMPEG downloads a static ffmpeg build. yt-dlp needs it to merge separate
// video and audio streams.
func InstallFFMPEG(ctx context.Context, progressFn ProgressFunc) (string, error) {
	binDir, err := GetBinariesDir()
	if err != nil {
		return "", err
	}

	var downloadURL, archiveType string
	switch runtime.GOOS {
	case "linux":
		downloadURL = "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz"
		archiveType = "tar.xz"
	case "darwin":
		downloadURL = "https://evermeet.cx/ffmpeg/getrelease/ffmpeg/zip"
		archiveType = "zip"
	case "windows":
		downloadURL = "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip"
		archiveType = "zip"
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	report(progressFn, "Downloading ffmpeg from %s...", downloadURL)

	tmp, err := os.CreateTemp("", "ffmpeg-download-*."+archiveType)
	if err != nil {
		return "", err
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	if err := downloadFile(ctx, downloadURL, tmpFile, progressFn); err != nil {
		return "", fmt.Errorf("failed to download ffmpeg: %w", err)
	}

	report(progressFn, "Extracting ffmpeg...")
	destPath := filepath.Join(binDir, Executable("ffmpeg"))

	if archiveType == "zip" {
		err = extractFromZip(tmpFile, destPath)
	} else {
		err = extractFromTar(tmpFile, archiveType, destPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract ffmpeg: %w", err)
	}

	report(progressFn, "ffmpeg installed at: %s", destPath)
	return destPath, nil
}

func report(progressFn ProgressFunc, format string, args ...any) {
	if progressFn != nil {
		progressFn(fmt.Sprintf(format, args...))
	}
}

// downloadFile downloads url to path, reporting progress as it goes
func downloadFile(ctx context.Context, url, path string, progressFn ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	pw := &progressWriter{total: resp.ContentLength, fn: progressFn}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, pw)); err != nil {
		return err
	}
	return out.Sync()
}

type progressWriter struct {
	total, done int64
	lastPct     int
	fn          ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if p.fn != nil && p.total > 0 {
		pct := int(p.done * 100 / p.total)
		if pct >= p.lastPct+10 {
			p.lastPct = pct
			p.fn(fmt.Sprintf("Downloading... %d%% (%d/%d MB)", pct, p.done>>20, p.total>>20))
		}
	}
	return len(b), nil
}

// isFFMPEGEntry matches the ffmpeg executable inside a release archive
func isFFMPEGEntry(name string) bool {
	base := filepath.Base(name)
	return (base == "ffmpeg" || base == "ffmpeg.exe") && !strings.Contains(name, "doc")
}

func extractFromZip(zipPath, destPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isFFMPEGEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return writeExecutable(destPath, rc)
	}
	return fmt.Errorf("ffmpeg binary not found in archive")
}

func extractFromTar(tarPath, archiveType, destPath string) error {
	file, err := os.Open(tarPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	switch archiveType {
	case "tar.gz":
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gzr.Close()
		reader = gzr
	case "tar.xz":
		xzr, err := xz.NewReader(file)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if header.Typeflag == tar.TypeReg && isFFMPEGEntry(header.Name) {
			return writeExecutable(destPath, tr)
		}
	}
	return fmt.Errorf("ffmpeg binary not found in archive")
}

func writeExecutable(destPath string, r io.Reader) error {
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return os.Chmod(destPath, 0755)
}
