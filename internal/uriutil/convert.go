package uriutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// PathToURI converts a file system path to a file:// URI.
//   - /home/user -> file:///home/user
//   - C:\proj -> file:///C:/proj
//   - \\server\share -> file://server/share (UNC)
//
// Relative paths are made absolute and every segment is percent-encoded.
func PathToURI(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if runtime.GOOS == "windows" && strings.HasPrefix(absPath, `\\`) {
		unc := filepath.ToSlash(strings.TrimPrefix(absPath, `\\`))
		return "file://" + escapeSegments(unc)
	}

	absPath = filepath.ToSlash(absPath)
	if !strings.HasPrefix(absPath, "/") {
		absPath = "/" + absPath
	}
	return "file://" + escapeSegments(absPath)
}

func escapeSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg != "" {
			segments[i] = url.PathEscape(seg)
		}
	}
	return strings.Join(segments, "/")
}

// URIToPath converts a file:// URI to a file system path, percent-decoding
// it and converting to OS separators. Windows drive URIs (file:///C:/x) lose
// their leading slash; file://server/share becomes a UNC path on Windows.
func URIToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uriFallback(uri)
	}

	path := parsed.Path
	if parsed.Host != "" {
		if runtime.GOOS == "windows" {
			host, _ := url.PathUnescape(parsed.Host)
			decoded, _ := url.PathUnescape(path)
			return `\\` + host + strings.ReplaceAll(decoded, "/", `\`)
		}
		return filepath.FromSlash(parsed.Host + path)
	}

	decoded, err := url.PathUnescape(path)
	if err != nil {
		decoded = path
	}
	return filepath.FromSlash(trimDriveSlash(decoded))
}

// RelPath returns the slash-separated path of uri relative to root, for
// matching against workspace globs. ok is false when uri is not a file URI
// under root.
func RelPath(root, uri string) (rel string, ok bool) {
	if root == "" || !strings.HasPrefix(uri, "file:") {
		return "", false
	}
	r, err := filepath.Rel(root, URIToPath(uri))
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// uriFallback strips the scheme from URIs url.Parse rejects
func uriFallback(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	return filepath.FromSlash(trimDriveSlash(path))
}

// trimDriveSlash turns /C:/proj into C:/proj
func trimDriveSlash(path string) string {
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		return path[1:]
	}
	return path
}
