package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string   `json:"status"`
	Tools  []string `json:"tools"`
}

// encodeWriteJSON writes payload as JSON with the given status
func encodeWriteJSON(w http.ResponseWriter, logger *logrus.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, logger *logrus.Logger, status int, message string) {
	encodeWriteJSON(w, logger, status, ErrorResponse{Error: message})
}

// writeResult streams a tool result as a download
func writeResult(w http.ResponseWriter, logger *logrus.Logger, result *tools.Result) {
	h := w.Header()
	h.Set("Content-Type", result.ContentType)
	h.Set("Content-Disposition", contentDisposition(result.Filename))
	h.Set("Content-Length", strconv.Itoa(len(result.Body)))
	for k, v := range result.Headers {
		h.Set(k, v)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(result.Body); err != nil {
		logger.WithError(err).Warn("Failed to write response body")
	}
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFilename folds accents and replaces anything that cannot appear
// inside a quoted header parameter.
func asciiFilename(name string) string {
	folded, _, err := transform.String(foldAccents, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == '"' || r == '\\' || r < 0x20 || r == 0x7f || r > unicode.MaxASCII:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// contentDisposition returns an attachment header. Names that are not plain
// ASCII also carry an RFC 5987 filename* parameter with the original name.
func contentDisposition(filename string) string {
	if filename == "" {
		filename = "download"
	}

	safe := asciiFilename(filename)
	header := fmt.Sprintf("attachment; filename=\"%s\"", safe)
	if safe != filename {
		header += "; filename*=UTF-8''" + url.PathEscape(filename)
	}
	return header
}
