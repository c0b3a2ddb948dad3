package images

import (
	"net/http"
	"path/filepath"
	"strings"
)

// photoFormats maps accepted file extensions to the MIME type their bytes
// must sniff as.
var photoFormats = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func acceptedExtension(name string) bool {
	_, ok := photoFormats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// sniffPhoto reports the payload's MIME type and whether it is a format we
// accept. The file name is not consulted.
func sniffPhoto(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mime := strings.ToLower(http.DetectContentType(data))
	if mime, _, _ = strings.Cut(mime, ";"); mime == "image/jpg" {
		mime = "image/jpeg"
	}
	for _, want := range photoFormats {
		if mime == want {
			return mime, true
		}
	}
	return mime, false
}
