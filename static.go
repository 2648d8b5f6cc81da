package fastigo

import (
	"mime"
	"path/filepath"
	"strings"
)

// contentTypes covers the extensions static sites actually serve; the
// platform mime table handles the long tail.
var contentTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".json":  "application/json",
	".xml":   "application/xml",
	".txt":   "text/plain",
	".csv":   "text/csv",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// contentTypeFor resolves a content type from the file extension,
// defaulting to application/octet-stream.
func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// isStaticPath reports whether the last path segment names a file, which
// routes the request to the archive fallback instead of the trie.
func isStaticPath(path string) bool {
	segs := splitPath(path)
	if len(segs) == 0 {
		return false
	}
	return strings.Contains(segs[len(segs)-1], ".")
}

// resolveStatic maps a request path onto the static root, refusing any
// path that escapes it. Returns "" when no file can be served.
func resolveStatic(root, path string) string {
	if root == "" {
		return ""
	}
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return ""
	}
	return filepath.Join(root, clean)
}
