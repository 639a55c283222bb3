package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

const maxJSONBody = 1 << 20

type runRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type runResponse struct {
	Answers []string `json:"answers"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type searchRequest struct {
	Query        string `json:"query"`
	TopK         int    `json:"top_k"`
	DocumentName string `json:"document_name,omitempty"`
}

type uploadResponse struct {
	DocumentName  string `json:"document_name"`
	ChunksCreated int    `json:"chunks_created"`
	FileType      string `json:"file_type"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type statsResponse struct {
	TotalVectorCount int     `json:"total_vector_count"`
	Dimension        int     `json:"dimension"`
	IndexFullness    float64 `json:"index_fullness"`
	Status           string  `json:"status"`
}

type searchResultJSON struct {
	ChunkID      string         `json:"chunk_id"`
	DocumentName string         `json:"document_name"`
	ChunkIndex   int            `json:"chunk_index"`
	PageNumber   *int           `json:"page_number"`
	Text         string         `json:"text"`
	Score        float64        `json:"score"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type entitiesJSON struct {
	Age            *int     `json:"age"`
	Gender         *string  `json:"gender"`
	Procedure      *string  `json:"procedure"`
	Location       *string  `json:"location"`
	PolicyDuration *string  `json:"policy_duration"`
	PolicyType     *string  `json:"policy_type"`
	Amount         *float64 `json:"amount"`
	Date           *string  `json:"date"`
}

type clauseJSON struct {
	ClauseID        string  `json:"clause_id"`
	ClauseText      string  `json:"clause_text"`
	DocumentName    string  `json:"document_name"`
	PageNumber      *int    `json:"page_number"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type decisionJSON struct {
	Decision          string       `json:"decision"`
	Amount            *float64     `json:"amount"`
	Justification     string       `json:"justification"`
	ReferencedClauses []clauseJSON `json:"referenced_clauses"`
	ExtractedEntities entitiesJSON `json:"extracted_entities"`
	ConfidenceScore   float64      `json:"confidence_score"`
	ProcessingTimeMs  int64        `json:"processing_time_ms"`
}

type explainResponse struct {
	Decision    decisionJSON `json:"decision"`
	Explanation string       `json:"explanation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.ports.Document.Stats(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"index":  string(stats.Status),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		writeError(w, http.StatusNotFound, "Token issuance is disabled")
		return
	}
	token, expires, err := s.auth.Issue(r.URL.Query().Get("sub"))
	if err != nil {
		logger.Error("Issuing token: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expires})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Documents) == "" {
		writeError(w, http.StatusBadRequest, "documents URL is required")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "at least one question is required")
		return
	}

	raw, err := s.ports.Document.Fetch(r.Context(), req.Documents)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	answers, err := s.ports.Answer.RunIngested(r.Context(), raw, req.Questions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Answers: answers})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, domain.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !domain.IsSupportedExtension(ext) {
		writeDomainError(w, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if int64(len(content)) > s.maxUpload {
		writeDomainError(w, domain.ErrFileTooLarge)
		return
	}

	raw := &domain.RawDocument{
		Name:    filepath.Base(header.Filename),
		Type:    domain.ExtensionToType(ext),
		Content: content,
	}
	count, err := s.ports.Document.Ingest(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentName:  raw.Name,
		ChunksCreated: count,
		FileType:      raw.Type.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.ports.Document.Stats(r.Context())
	writeJSON(w, http.StatusOK, statsResponse{
		TotalVectorCount: stats.TotalVectorCount,
		Dimension:        stats.Dimension,
		IndexFullness:    stats.IndexFullness,
		Status:           string(stats.Status),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.ports.Document.Delete(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDecisionJSON(s.ports.Decision.Decide(r.Context(), query)))
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	resp := s.ports.Decision.Decide(r.Context(), query)
	writeJSON(w, http.StatusOK, explainResponse{
		Decision:    toDecisionJSON(resp),
		Explanation: s.ports.Decision.Explain(resp),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	k := req.TopK
	if k <= 0 {
		k = s.defaultTopK
	}

	results := s.ports.Search.SearchWithReranking(r.Context(), req.Query, k,
		domain.VectorFilter{DocumentName: req.DocumentName})
	out := make([]searchResultJSON, len(results))
	for i, res := range results {
		out[i] = searchResultJSON{
			ChunkID:      res.Chunk.ChunkID,
			DocumentName: res.Chunk.DocumentName,
			ChunkIndex:   res.Chunk.Index,
			PageNumber:   res.Chunk.PageNumber,
			Text:         res.Chunk.Text,
			Score:        res.Score,
			Metadata:     res.Chunk.Metadata,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out, "count": len(out)})
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return "", false
	}
	return req.Query, true
}

func toDecisionJSON(d domain.DecisionResponse) decisionJSON {
	clauses := make([]clauseJSON, len(d.ReferencedClauses))
	for i, c := range d.ReferencedClauses {
		clauses[i] = clauseJSON(c)
	}

	e := d.ExtractedEntities
	var gender *string
	if e.Gender.IsValid() {
		g := string(e.Gender)
		gender = &g
	}

	return decisionJSON{
		Decision:          string(d.Decision),
		Amount:            d.Amount,
		Justification:     d.Justification,
		ReferencedClauses: clauses,
		ExtractedEntities: entitiesJSON{
			Age:            e.Age,
			Gender:         gender,
			Procedure:      e.Procedure,
			Location:       e.Location,
			PolicyDuration: e.PolicyDuration,
			PolicyType:     e.PolicyType,
			Amount:         e.Amount,
			Date:           e.Date,
		},
		ConfidenceScore:  d.ConfidenceScore,
		ProcessingTimeMs: d.ProcessingTimeMs,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeDomainError maps caller-facing errors to status codes. Anything else
// is an internal failure and its detail is logged, not returned.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDownloadFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVectorIndexUnavailable):
		writeError(w, http.StatusServiceUnavailable, "vector index unavailable")
	default:
		logger.Error("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encoding response: %v", err)
	}
}
