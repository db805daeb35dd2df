package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grabtools/webgrab/internal/urlutil"
)

const maxFilenameLength = 255

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename makes a filename safe for the filesystem: invalid
// characters are replaced, surrounding dots and spaces stripped, and the name
// truncated to 255 characters preserving the extension.
func SanitizeFilename(name string) string {
	if name == "" {
		return "unnamed"
	}

	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		if keep := maxFilenameLength - len(ext); keep > 0 && len(base) > keep {
			base = base[:keep]
		}
		name = base + ext
	}

	if name == "" {
		return "unnamed"
	}
	return name
}

// FilenameFromURL derives a filename from a URL's path. URLs without a usable
// path segment fall back to a name derived from the domain.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown_file"
	}

	p, err := url.PathUnescape(u.Path)
	if err != nil {
		p = u.Path
	}

	name := path.Base(p)
	if name == "" || name == "/" || name == "." {
		name = urlutil.Domain(rawURL) + "_page"
	}

	return SanitizeFilename(name)
}

// ExtensionFromURL extracts the lowercased file extension (with dot) from a
// URL's path.
func ExtensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	p, err := url.PathUnescape(u.Path)
	if err != nil {
		p = u.Path
	}

	return strings.ToLower(path.Ext(p))
}

// UniqueFilename returns a filename under dir that does not collide with an
// existing file, appending an incrementing numeric suffix to the base name.
// After 9999 collisions a hash-derived suffix guarantees termination.
func UniqueFilename(dir, base, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name := base + ext
	if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}

	for counter := 1; counter <= 9999; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}

	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s_%s%s", base, hex.EncodeToString(sum[:4]), ext)
}

// FileHash computes the SHA-256 hash of a file's contents, used for
// duplicate suppression.
func FileHash(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatSize renders a byte count in human readable form, e.g. "1.5 KB".
func FormatSize(sizeBytes int64) string {
	if sizeBytes == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(sizeBytes)
	unit := 0

	for size >= 1024.0 && unit < len(units)-1 {
		size /= 1024.0
		unit++
	}

	return fmt.Sprintf("%.1f %s", size, units[unit])
}
