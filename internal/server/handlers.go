package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mtxspy/pkg/buildinfo"
	"github.com/matzehuels/mtxspy/pkg/errors"
	"github.com/matzehuels/mtxspy/pkg/exchange"
	"github.com/matzehuels/mtxspy/pkg/pipeline"
	"github.com/matzehuels/mtxspy/pkg/render/sink"
	"github.com/matzehuels/mtxspy/pkg/stats"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type infoResponse struct {
	Name    string        `json:"name"`
	Cached  bool          `json:"cached"`
	Summary stats.Summary `json:"summary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := sink.Format(opts.Formats[0])
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Grid-Hash", result.GridHash)
	w.Header().Set("X-Cache", cacheStatus(result.CacheInfo.GridHit && result.CacheInfo.RenderHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[opts.Formats[0]])
}

func (s *Server) handleBin(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g, hit, err := s.runner.BinWithCacheInfo(r.Context(), opts, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exchange.Write(&buf, g); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", sink.FormatBins.ContentType())
	w.Header().Set("X-Cache", cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g, hit, err := s.runner.BinWithCacheInfo(r.Context(), opts, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Name:    opts.Name,
		Cached:  hit,
		Summary: stats.Summarize(g, opts.NominalDensity),
	})
}

// requestOptions reads the body and query of r into pipeline options.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Name: "matrix"}

	if name := q.Get("name"); name != "" {
		if err := errors.ValidateMatrixName(name); err != nil {
			return opts, err
		}
		opts.Name = name
	}

	format := pipeline.DefaultFormat
	if v := q.Get("format"); v != "" {
		format = v
	}
	f, err := sink.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.Formats = []string{string(f)}

	ints := []struct {
		key string
		dst *int
	}{
		{"resolution", &opts.Resolution},
		{"samples", &opts.Samples},
		{"size", &opts.Size},
	}
	for _, p := range ints {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidOption, "%s must be an integer, got %q", p.key, v)
			}
			*p.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"legend", &opts.Legend},
		{"nominal", &opts.NominalDensity},
		{"skip_zeros", &opts.SkipZeros},
		{"bins", &opts.Bins},
		{"refresh", &opts.Refresh},
	}
	for _, p := range bools {
		if v := q.Get(p.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidOption, "%s must be a boolean, got %q", p.key, v)
			}
			*p.dst = b
		}
	}

	if v := q.Get("delta"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidOption, "delta must be a number, got %q", v)
		}
		if d == 0 {
			// Zero means "default" in Options; an explicit zero is rejected.
			return opts, errors.ValidateDelta(d)
		}
		opts.Delta = d
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return opts, errors.Wrap(errors.ErrCodeInvalidOption, err, "request body exceeds %d bytes", s.maxBody)
		}
		return opts, errors.Wrap(errors.ErrCodeInternal, err, "read request body")
	}
	opts.Data = data
	opts.Logger = s.logger
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsInputError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeInvalidOption), errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeFileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
