package server

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pivotframe/pkg/buildinfo"
	"github.com/matzehuels/pivotframe/pkg/cache"
	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	"github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/httputil"
	"github.com/matzehuels/pivotframe/pkg/pipeline"
	"github.com/matzehuels/pivotframe/pkg/scene"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

// contentTypes maps pipeline formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatTopology: "image/svg+xml",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON:     "application/json",
}

// =============================================================================
// Response Types
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// EncodeResponse is the body of POST /api/v1/encode.
type EncodeResponse struct {
	Data   string `json:"data"`
	Record string `json:"record"`
	URL    string `json:"url,omitempty"`
}

// SimulateResponse is the body of POST /api/v1/simulate. Scene is the
// simulated frame with its rest lengths and can be posted again to continue
// the simulation. Artifacts are keyed by format and hold the rendered text.
type SimulateResponse struct {
	Scene     scene.Document     `json:"scene"`
	Data      string             `json:"data"`
	Record    string             `json:"record"`
	URL       string             `json:"url,omitempty"`
	Solver    solver.Stats       `json:"solver"`
	Cache     pipeline.CacheInfo `json:"cache"`
	Artifacts map[string]string  `json:"artifacts,omitempty"`
}

// LibraryListResponse is the body of GET /api/v1/library.
type LibraryListResponse struct {
	Frames []storage.Summary `json:"frames"`
}

// LibraryEntry is the body of GET /api/v1/library/{id}.
type LibraryEntry struct {
	Document scene.Document `json:"document"`
	Data     string         `json:"data"`
	URL      string         `json:"url,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

// handleFrame renders the frame packed in the data query value. A packed
// frame is at rest, so it is rendered as is.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Packed:       q.Get(codec.QueryKey),
		SkipSimulate: true,
		Formats:      []string{pipeline.FormatSVG},
	}
	if opts.Packed == "" {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, codec.ErrNoData, "missing %q query value", codec.QueryKey))
		return
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{f}
	}
	for key, dst := range map[string]*bool{"pivots": &opts.Pivots, "labels": &opts.Labels} {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s %q", key, v))
				return
			}
			*dst = b
		}
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("ETag", strconv.Quote(cache.Hash([]byte(res.Packed))[:16]))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var doc scene.Document
	if err := httputil.DecodeJSON(w, r, &doc); err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := doc.Frame()
	if err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidReference, err, "invalid document"))
		return
	}
	resp, err := s.encode(f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := httputil.DecodeJSON(w, r, &opts); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	enc, err := s.encode(res.Frame)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := SimulateResponse{
		Scene:  res.Scene,
		Data:   res.Packed,
		Record: enc.Record,
		URL:    enc.URL,
		Solver: res.Solver,
		Cache:  res.CacheInfo,
	}
	if len(res.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(res.Artifacts))
		for format, data := range res.Artifacts {
			resp.Artifacts[format] = string(data)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLibrarySave(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w, r) {
		return
	}
	var doc scene.Document
	if err := httputil.DecodeJSON(w, r, &doc); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.library.Save(r.Context(), doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/library/"+saved.ID)
	httputil.WriteJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w, r) {
		return
	}
	frames, err := s.library.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if frames == nil {
		frames = []storage.Summary{}
	}
	httputil.WriteJSON(w, http.StatusOK, LibraryListResponse{Frames: frames})
}

func (s *Server) handleLibraryGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w, r) {
		return
	}
	doc, err := s.library.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := doc.Frame()
	if err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInternal, err, "stored document %s", doc.ID))
		return
	}
	enc, err := s.encode(f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LibraryEntry{Document: doc, Data: enc.Data, URL: enc.URL})
}

func (s *Server) handleLibraryDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w, r) {
		return
	}
	if err := s.library.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) encode(f *frame.Frame) (EncodeResponse, error) {
	packed, err := codec.Pack(f)
	if err != nil {
		return EncodeResponse{}, err
	}
	record, err := codec.Marshal(f)
	if err != nil {
		return EncodeResponse{}, err
	}
	resp := EncodeResponse{Data: packed, Record: record}
	if s.cfg.ShareBase != "" {
		if resp.URL, err = codec.ShareURL(s.cfg.ShareBase, f); err != nil {
			return EncodeResponse{}, err
		}
	}
	return resp, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Stats == nil {
		s.fail(w, r, errors.New(errors.ErrCodeUnsupported, "stats are not enabled"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.cfg.Stats.Snapshot())
}

func (s *Server) requireLibrary(w http.ResponseWriter, r *http.Request) bool {
	if s.library == nil {
		s.fail(w, r, errors.New(errors.ErrCodeUnsupported, "library storage is not configured"))
		return false
	}
	return true
}

// fail writes err, translating sentinels from lower layers to codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.GetCode(err) == "" {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			err = errors.Wrap(errors.ErrCodeNotFound, err, "frame not found")
		case stderrors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
			err = errors.Wrap(errors.ErrCodeTimeout, err, "request timed out")
		}
	}
	if code := errors.GetCode(err); !code.Client() && code != errors.ErrCodeUnsupported {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	httputil.WriteError(w, err)
}
