package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/njtree/pkg/bootstrap"
	"github.com/matzehuels/njtree/pkg/buildinfo"
	"github.com/matzehuels/njtree/pkg/distance"
	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/pipeline"
	"github.com/matzehuels/njtree/pkg/seq"
	"github.com/matzehuels/njtree/pkg/tree"
)

// =============================================================================
// Responses
// =============================================================================

type treeResponse struct {
	RunID       string            `json:"run_id"`
	Taxa        int               `json:"taxa"`
	Columns     int               `json:"columns"`
	Replicates  int               `json:"replicates,omitempty"`
	MeanSupport float64           `json:"mean_support,omitempty"`
	Newick      string            `json:"newick"`
	Edges       []tree.Edge       `json:"edges"`
	Support     []nodeSupport     `json:"support,omitempty"`
	Drawings    map[string]string `json:"drawings,omitempty"`
	Cached      cacheStatus       `json:"cached"`
}

// nodeSupport is the confidence of one internal node. Entries are listed in
// the order the nodes first appear as parents in the edge list.
type nodeSupport struct {
	Node       tree.NodeID `json:"node"`
	Confidence float64     `json:"confidence"`
}

type cacheStatus struct {
	Tree      bool `json:"tree"`
	Bootstrap bool `json:"bootstrap"`
	Render    bool `json:"render"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    nterrors.Code `json:"code"`
	Message string        `json:"message"`
}

func newTreeResponse(res *pipeline.Result) treeResponse {
	resp := treeResponse{
		RunID:   res.RunID,
		Taxa:    res.Stats.Taxa,
		Columns: res.Stats.Columns,
		Newick:  string(res.Artifacts[pipeline.ArtifactTree]),
		Edges:   res.Tree.Edges(),
		Cached: cacheStatus{
			Tree:      res.CacheInfo.TreeHit,
			Bootstrap: res.CacheInfo.BootstrapHit,
			Render:    res.CacheInfo.RenderHit,
		},
	}
	if res.Support != nil {
		resp.Replicates = res.Support.Replicates
		resp.MeanSupport = res.Stats.MeanSupport
		for _, id := range bootstrap.Order(res.Tree) {
			resp.Support = append(resp.Support, nodeSupport{Node: id, Confidence: res.Support.Confidence(id)})
		}
	}
	for _, f := range []string{pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG} {
		data, ok := res.Artifacts[f]
		if !ok {
			continue
		}
		if resp.Drawings == nil {
			resp.Drawings = make(map[string]string)
		}
		// Text formats are inlined; binary ones are base64.
		if f == pipeline.FormatPDF || f == pipeline.FormatPNG {
			resp.Drawings[f] = base64.StdEncoding.EncodeToString(data)
		} else {
			resp.Drawings[f] = string(data)
		}
	}
	return resp
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleTrees runs the full pipeline on the uploaded alignment.
//
// Query parameters: replicates, seed (positive), bootstrap (default true), format
// (comma-separated dot, svg, pdf, png), layout, lengths.
func (s *Server) handleTrees(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseTreeQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	aln, err := s.readAlignment(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), aln, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTreeResponse(res))
}

// handleDistances returns the p-distance matrix of the uploaded alignment.
func (s *Server) handleDistances(w http.ResponseWriter, r *http.Request) {
	aln, err := s.readAlignment(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m, err := distance.ComputeParallel(aln, s.opts.Workers)
	if err != nil {
		s.writeError(w, pipeline.Classify(err, "compute distances"))
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := m.WriteTSV(w); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

// =============================================================================
// Request parsing
// =============================================================================

func (s *Server) parseTreeQuery(q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		Workers: s.opts.Workers,
		Logger:  s.logger,
	}
	if v := q.Get("replicates"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, nterrors.New(nterrors.ErrCodeInvalidInput, "replicates must be an integer, got %q", v)
		}
		if n > s.opts.MaxReplicates {
			return opts, nterrors.New(nterrors.ErrCodeInvalidInput, "replicates must be at most %d on this server", s.opts.MaxReplicates)
		}
		opts.Replicates = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, nterrors.New(nterrors.ErrCodeInvalidInput, "seed must be a positive integer, got %q", v)
		}
		if err := nterrors.ValidateSeed(seed); err != nil {
			return opts, err
		}
		opts.Seed = seed
	}
	if v := q.Get("bootstrap"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, nterrors.New(nterrors.ErrCodeInvalidInput, "bootstrap must be true or false, got %q", v)
		}
		opts.SkipBootstrap = !on
	}
	if v := q.Get("format"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Formats = append(opts.Formats, f)
			}
		}
	}
	opts.Layout = q.Get("layout")
	if v := q.Get("lengths"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, nterrors.New(nterrors.ErrCodeInvalidInput, "lengths must be true or false, got %q", v)
		}
		opts.Lengths = on
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// readAlignment decodes and validates the FASTA request body.
func (s *Server) readAlignment(w http.ResponseWriter, r *http.Request) (seq.Alignment, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	defer body.Close()

	aln, err := seq.ReadFASTA(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nterrors.Wrap(nterrors.ErrCodeInvalidInput, err, "alignment exceeds %d bytes", s.opts.MaxBodyBytes)
		}
		return nil, pipeline.Classify(err, "parse alignment")
	}
	if err := pipeline.ValidateAlignment(aln); err != nil {
		return nil, err
	}
	return aln, nil
}

// =============================================================================
// Response helpers
// =============================================================================

func (s *Server) writeError(w http.ResponseWriter, err error) {
	err = pipeline.Classify(err, "request failed")
	code := nterrors.GetCode(err)
	status := nterrors.HTTPStatus(code)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: nterrors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
