package stream

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidStreamFile is returned for filenames outside the allowed
// character class or extensions. This check, together with basename
// normalization of both path components, is the defense against path
// traversal.
var ErrInvalidStreamFile = errors.New("invalid stream file")

var streamFilePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ResolveAssetPath turns an already camera-authorized filename into a
// concrete on-disk path under baseDir. Only .m3u8 and .ts files with a
// restrictive character set are reachable; everything else fails closed.
func ResolveAssetPath(baseDir string, cameraID, filename string) (string, error) {
	if !streamFilePattern.MatchString(filename) {
		return "", ErrInvalidStreamFile
	}
	switch filepath.Ext(filename) {
	case ".m3u8", ".ts":
	default:
		return "", ErrInvalidStreamFile
	}
	return filepath.Join(baseDir, filepath.Base(cameraID), filepath.Base(filename)), nil
}

// InjectToken rewrites playlist content so every segment reference
// carries the caller's token as a query parameter. Comment lines and
// blank lines pass through unchanged; lines that already carry a token
// parameter are left alone. The input is treated as a snapshot: the
// transcoder rewrites the file continuously and this function never
// writes anything back.
func InjectToken(playlist, token string) string {
	lines := strings.Split(playlist, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(trimmed, "token=") {
			continue
		}
		sep := "?"
		if strings.Contains(trimmed, "?") {
			sep = "&"
		}
		lines[i] = trimmed + sep + "token=" + url.QueryEscape(token)
	}
	return strings.Join(lines, "\n")
}
