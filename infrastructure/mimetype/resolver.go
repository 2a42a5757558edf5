// Package mimetype resolves upload content types from file extensions.
//
// The default Resolver consults a built-in table first and then the
// platform MIME database (mime.types files on Unix, the registry on Windows,
// as loaded by the standard mime package).
package mimetype

import (
	"mime"
	"path/filepath"
	"strings"

	"gdrive-share/domain/distribution"
)

// Lookup maps a lower-case extension (with leading dot) to a content type
type Lookup interface {
	Lookup(ext string) (string, bool)
}

// builtinTypes is usable on every platform, independent of local configuration
var builtinTypes = map[string]string{
	".7z":   "application/x-7z-compressed",
	".avi":  "video/x-msvideo",
	".bmp":  "image/bmp",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".epub": "application/epub+zip",
	".flac": "audio/flac",
	".gif":  "image/gif",
	".gz":   "application/gzip",
	".htm":  "text/html",
	".html": "text/html",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "text/javascript",
	".json": "application/json",
	".m4a":  "audio/mp4",
	".md":   "text/markdown",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rar":  "application/vnd.rar",
	".rtf":  "application/rtf",
	".svg":  "image/svg+xml",
	".tar":  "application/x-tar",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".txt":  "text/plain",
	".wav":  "audio/wav",
	".webm": "video/webm",
	".webp": "image/webp",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",
	".zip":  "application/zip",
}

// StaticTable is a fixed extension table
type StaticTable map[string]string

// BuiltinTable returns a copy of the built-in extension table
func BuiltinTable() StaticTable {
	t := make(StaticTable, len(builtinTypes))
	for ext, ctype := range builtinTypes {
		t[ext] = ctype
	}
	return t
}

// Lookup implements Lookup
func (t StaticTable) Lookup(ext string) (string, bool) {
	ctype, ok := t[ext]
	return ctype, ok
}

// SystemTable consults the platform MIME database
type SystemTable struct{}

// Lookup implements Lookup; media type parameters such as charset are dropped
func (SystemTable) Lookup(ext string) (string, bool) {
	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		return "", false
	}
	if mediaType, _, err := mime.ParseMediaType(ctype); err == nil {
		ctype = mediaType
	}
	return ctype, true
}

// Resolver implements distribution.MimeTypeResolver over a chain of lookups
type Resolver struct {
	lookups []Lookup
}

// NewResolver creates a resolver consulting lookups in order.
// With no lookups it uses the built-in table followed by the system table.
func NewResolver(lookups ...Lookup) *Resolver {
	if len(lookups) == 0 {
		lookups = []Lookup{BuiltinTable(), SystemTable{}}
	}
	return &Resolver{lookups: lookups}
}

// MimeType returns the content type for fileName's extension, or
// distribution.DefaultMimeType when the extension is missing or unknown
func (r *Resolver) MimeType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || ext == "." {
		return distribution.DefaultMimeType
	}

	for _, l := range r.lookups {
		if ctype, ok := l.Lookup(ext); ok && ctype != "" {
			return ctype
		}
	}
	return distribution.DefaultMimeType
}

// Ensure Resolver implements distribution.MimeTypeResolver
var _ distribution.MimeTypeResolver = (*Resolver)(nil)
