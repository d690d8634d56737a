package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ritunjaym/vector-catalog-service/internal/search"
	"github.com/ritunjaym/vector-catalog-service/pb"
)

// ShardDescriptor is the JSON shape of one index shard, read-only to the
// gateway.
type ShardDescriptor struct {
	ShardKey       string `json:"shardKey"`
	TotalVectors   int64  `json:"totalVectors"`
	Dimension      int32  `json:"dimension"`
	IndexType      string `json:"indexType,omitempty"`
	IsTrained      bool   `json:"isTrained"`
	IndexSizeBytes int64  `json:"indexSizeBytes"`
}

func toDescriptors(shards []*pb.ShardInfo) []ShardDescriptor {
	out := make([]ShardDescriptor, 0, len(shards))
	for _, s := range shards {
		if s == nil {
			continue
		}
		out = append(out, ShardDescriptor{
			ShardKey:       s.ShardKey,
			TotalVectors:   s.TotalVectors,
			Dimension:      s.Dimension,
			IndexType:      s.IndexType,
			IsTrained:      s.IsTrained,
			IndexSizeBytes: s.IndexSizeBytes,
		})
	}
	return out
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "request body is not valid JSON")
		return
	}
	if vErr := req.ValidateAndDefault(s.orchestrator.DefaultTopK()); vErr != nil {
		writeError(w, r, vErr)
		return
	}

	resp, err := s.orchestrator.Search(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndexInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.index.Info(r.Context(), r.URL.Query().Get("shardKey"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shards": toDescriptors(resp.Shards)})
}

func (s *Server) handleIndexReload(w http.ResponseWriter, r *http.Request) {
	resp, err := s.index.Reload(r.Context(), r.URL.Query().Get("shardKey"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        resp.Success,
		"reloadedShards": resp.ReloadedShards,
		"message":        resp.Message,
	})
}

func (s *Server) handleCacheWarmup(w http.ResponseWriter, r *http.Request) {
	var req search.WarmupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "request body is not valid JSON")
		return
	}
	if vErr := req.Validate(); vErr != nil {
		writeError(w, r, vErr)
		return
	}

	resp, err := s.orchestrator.Warmup(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "query parameter is required")
		return
	}
	topK := 0
	if raw := q.Get("topK"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeProblem(w, r, http.StatusBadRequest, "Bad Request", "topK must be a positive integer")
			return
		}
		topK = n
	}

	deleted := s.orchestrator.Invalidate(r.Context(), query, topK, q.Get("shardKey"))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	report := s.checker.Ready(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
