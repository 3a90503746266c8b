package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// multipartMemory is held in memory per request; larger uploads spill to temp files.
const multipartMemory = 32 << 20

// toolHandler serves POST /pdf/<tool>
func (s *Server) toolHandler(tool tools.Tool) http.HandlerFunc {
	def := tool.Definition()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, s.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

		req, err := readRequest(r, def)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, s.logger, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body exceeds the maximum upload size of %d bytes", tooLarge.Limit))
				return
			}
			s.logger.WithError(err).WithField("tool", def.Name).Debug("Failed to read form data")
			writeError(w, s.logger, http.StatusBadRequest, "Invalid form data")
			return
		}

		requestID := RequestIDFromContext(r.Context())
		result, err := registry.Execute(r.Context(), tool, req, registry.Invocation{
			Transport: registry.TransportHTTP,
			RequestID: requestID,
		})
		if err != nil {
			status, message := classifyError(def, err)
			if status >= http.StatusInternalServerError {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"tool":       def.Name,
					"request_id": requestID,
				}).Error("Tool execution failed")
			}
			writeError(w, s.logger, status, message)
			return
		}

		writeResult(w, s.logger, result)
	}
}

// classifyError maps a tool error to a status code and a client-safe message
func classifyError(def tools.Definition, err error) (int, string) {
	if ve, ok := tools.IsValidation(err); ok {
		if ve.Code == tools.CodeFileTooLarge {
			return http.StatusRequestEntityTooLarge, ve.Message
		}
		return http.StatusBadRequest, ve.Message
	}

	if pe, ok := tools.IsParse(err); ok {
		return http.StatusBadRequest, pe.Error()
	}

	message := def.FailureMessage
	if message == "" {
		message = "Internal server error"
	}
	return http.StatusInternalServerError, message
}

// readRequest builds a tool request from a multipart form. Requests that are
// not multipart yield an empty request so the tool reports what is missing.
func readRequest(r *http.Request, def tools.Definition) (*tools.Request, error) {
	req := tools.NewRequest()

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return req, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if p, ok := def.FileParam(); ok {
		headers := r.MultipartForm.File[p.Name]
		if p.Type == tools.ParamFile && len(headers) > 1 {
			headers = headers[:1]
		}
		for _, fh := range headers {
			data, err := readPart(fh)
			if err != nil {
				return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
			}
			req.AddFile(fh.Filename, data)
		}
	}

	for _, p := range def.FieldParams() {
		if values, ok := r.MultipartForm.Value[p.Name]; ok && len(values) > 0 {
			req.SetField(p.Name, values[0])
		}
	}

	return req, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, s.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	encodeWriteJSON(w, s.logger, http.StatusOK, HealthResponse{
		Status: "ok",
		Tools:  s.toolNames,
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, s.logger, http.StatusNotFound, "Not found")
}
