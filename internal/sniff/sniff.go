// Package sniff classifies file content as binary or text. Classification
// prefers extension lists and falls back to inspecting a content sample,
// since extension-less files (Makefile, LICENSE) and misnamed files both
// occur in real trees.
package sniff

import (
	"bytes"
	"mime"
	"path"
	"strings"
	"unicode/utf8"
)

// sampleSize bounds how much content the fallback sniff inspects.
const sampleSize = 512

// textExtensions are always treated as text regardless of content.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".java": true, ".c": true, ".h": true, ".cpp": true,
	".hpp": true, ".cc": true, ".rs": true, ".rb": true, ".php": true,
	".swift": true, ".kt": true, ".scala": true, ".sh": true, ".bash": true,
	".zsh": true, ".fish": true, ".ps1": true, ".bat": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".env": true, ".properties": true,
	".xml": true, ".html": true, ".htm": true, ".css": true, ".scss": true,
	".less": true, ".svg": true, ".sql": true, ".csv": true, ".tsv": true,
	".log": true, ".proto": true, ".graphql": true, ".tex": true,
	".gitignore": true, ".dockerignore": true, ".editorconfig": true,
}

// binaryExtensions are always treated as binary regardless of content.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wav": true, ".flac": true, ".ogg": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".zst": true, ".zstd": true, ".7z": true, ".rar": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".o": true, ".a": true, ".class": true, ".wasm": true, ".pyc": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".db": true, ".sqlite": true,
}

// Binary reports whether content should be treated as binary. The file
// name's extension decides when it is on a known list; otherwise a sample
// of the content is checked for NUL bytes and invalid UTF-8.
func Binary(data []byte, name string) bool {
	ext := strings.ToLower(path.Ext(name))
	if textExtensions[ext] {
		return false
	}
	if binaryExtensions[ext] {
		return true
	}

	if len(data) == 0 {
		return false
	}
	sample := data
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	return !utf8.Valid(trimPartialRune(sample))
}

// MIMEType returns the MIME type for a file name, without parameters.
// Empty when the extension is unknown.
func MIMEType(name string) string {
	t := mime.TypeByExtension(path.Ext(name))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// trimPartialRune drops a multi-byte rune cut off by the sample boundary so
// it is not misread as invalid UTF-8.
func trimPartialRune(sample []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(sample) > 0; i++ {
		last := sample[len(sample)-1]
		if utf8.RuneStart(last) {
			if last >= 0x80 {
				// Start byte of an incomplete multi-byte rune
				sample = sample[:len(sample)-1]
			}
			break
		}
		sample = sample[:len(sample)-1]
	}
	return sample
}
