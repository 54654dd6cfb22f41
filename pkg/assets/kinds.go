package assets

import (
	"path"
	"sort"
	"strings"
)

// FileKinds maps a kind handle to the extensions it covers.
var FileKinds = map[string][]string{
	"access":      {"adp", "accdb", "mdb", "accde", "accdt", "accdr"},
	"audio":       {"3gp", "aac", "act", "aif", "aiff", "aifc", "alac", "amr", "au", "dct", "dss", "dvf", "flac", "gsm", "iklax", "ivs", "m4a", "m4p", "mmf", "mp3", "mpc", "msv", "oga", "ogg", "opus", "ra", "tta", "vox", "wav", "wma", "wv"},
	"compressed":  {"7z", "bz2", "gz", "rar", "tar", "tgz", "zip", "zst"},
	"excel":       {"xls", "xlsx", "xlsm", "xltx", "xltm"},
	"html":        {"html", "htm"},
	"illustrator": {"ai"},
	"image":       {"avif", "bmp", "gif", "heic", "jfif", "jp2", "jpe", "jpeg", "jpg", "png", "svg", "tif", "tiff", "webp"},
	"javascript":  {"js"},
	"json":        {"json"},
	"pdf":         {"pdf"},
	"photoshop":   {"psd", "psb"},
	"php":         {"php"},
	"powerpoint":  {"pps", "ppsm", "ppsx", "ppt", "pptm", "pptx", "potx"},
	"text":        {"txt", "text", "csv", "md"},
	"video":       {"avchd", "asf", "asx", "avi", "flv", "fla", "mov", "m4v", "mng", "mpeg", "mpg", "m1s", "mp2v", "m2v", "m2s", "mp4", "mkv", "qt", "flv", "mp4", "ogv", "rm", "wmv", "webm", "vob"},
	"word":        {"doc", "docx", "dot", "docm", "dotm"},
	"xml":         {"xml"},
}

// Extension returns the lower cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// KindOf returns the kind of filename, "unknown" when no kind lists its extension.
func KindOf(filename string) string {
	ext := Extension(filename)
	kinds := make([]string, 0, len(FileKinds))
	for kind := range FileKinds {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		for _, candidate := range FileKinds[kind] {
			if candidate == ext {
				return kind
			}
		}
	}
	return "unknown"
}

// AllowedExtensions flattens the extensions of the given kinds. Unknown kinds are ignored.
func AllowedExtensions(kinds []string) map[string]bool {
	allowed := map[string]bool{}
	for _, kind := range kinds {
		for _, ext := range FileKinds[strings.ToLower(kind)] {
			allowed[ext] = true
		}
	}
	return allowed
}

// IsAllowed compares case-insensitively against an allow-list built by AllowedExtensions.
func IsAllowed(filename string, allowed map[string]bool) bool {
	return allowed[Extension(filename)]
}
