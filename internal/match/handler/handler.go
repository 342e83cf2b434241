package handler

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"device-match-service/internal/catalog"
	"device-match-service/internal/fileio"
	"device-match-service/internal/match/model"
	"device-match-service/internal/match/service"
)

// Handler wires the matching pipeline to HTTP. All state lives in the
// injected collaborators; the handler itself is stateless.
type Handler struct {
	pre    *service.Preprocessor
	engine *service.Engine
	store  *catalog.Store
	cache  *service.DetailCache
	log    zerolog.Logger
}

func New(pre *service.Preprocessor, engine *service.Engine, store *catalog.Store, cache *service.DetailCache, log zerolog.Logger) *Handler {
	return &Handler{pre: pre, engine: engine, store: store, cache: cache, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"devices": len(h.store.Devices()),
		"rules":   len(h.store.Rules()),
		"details": h.cache.Len(),
	})
}

type preprocessRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"` // "device" or "matching" (default)
}

// Preprocess runs the pipeline on one description and returns every stage,
// including the explainability details.
func (h *Handler) Preprocess(w http.ResponseWriter, r *http.Request) {
	var req preprocessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode := service.ModeMatching
	if req.Mode == string(service.ModeDevice) {
		mode = service.ModeDevice
	}
	writeJSON(w, http.StatusOK, h.pre.Preprocess(req.Text, mode))
}

type matchRequest struct {
	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features,omitempty"`
	RecordDetail bool     `json:"record_detail,omitempty"`
}

type matchResponse struct {
	Result    model.MatchResult `json:"result"`
	DetailKey string            `json:"detail_key,omitempty"`
}

// Match matches one description (or a pre-extracted feature list) against
// the current rule set.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	features := req.Features
	var prep *model.PreprocessResult
	if len(features) == 0 {
		res := h.pre.Preprocess(req.Description, service.ModeMatching)
		prep = &res
		features = res.Features
	}

	result, key := h.engine.Match(features, h.store.Rules(), req.RecordDetail)
	if key != "" && prep != nil {
		if d := h.cache.Get(key); d != nil {
			d.OriginalText = req.Description
			d.Preprocessing = prep
		}
	}
	writeJSON(w, http.StatusOK, matchResponse{Result: result, DetailKey: key})
}

type batchRow struct {
	Row         int               `json:"row"`
	Description string            `json:"description"`
	Result      model.MatchResult `json:"result"`
}

type batchResponse struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Rows      []batchRow `json:"rows"`
	ElapsedMS int64      `json:"elapsed_ms"`
}

// Aliases for the description column in uploaded matching sheets.
var descriptionAliases = []string{
	"设备描述", "描述", "设备名称", "名称", "description", "device", "text",
}

// MatchBatch matches every row of an uploaded spreadsheet. Rows are scored
// concurrently; output order follows the input.
func (h *Handler) MatchBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		httpError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	rows, err := fileio.ReadAnyMaps(file, header.Filename, atoi(r.FormValue("header_row"), 1))
	if err != nil {
		httpError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	column := strings.TrimSpace(r.FormValue("column"))
	descs := make([]string, len(rows))
	for i, row := range rows {
		descs[i] = descriptionCell(row, column)
	}

	rules := h.store.Rules()
	out := make([]batchRow, len(rows))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range descs {
		g.Go(func() error {
			res := h.pre.Preprocess(descs[i], service.ModeMatching)
			result, _ := h.engine.Match(res.Features, rules, false)
			out[i] = batchRow{Row: i + 1, Description: descs[i], Result: result}
			return nil
		})
	}
	_ = g.Wait()

	resp := batchResponse{Total: len(out), Rows: out, ElapsedMS: time.Since(start).Milliseconds()}
	for _, row := range out {
		if row.Result.MatchStatus == model.StatusSuccess {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	h.log.Info().
		Str("file", header.Filename).
		Int("rows", resp.Total).
		Int("succeeded", resp.Succeeded).
		Dur("elapsed", time.Since(start)).
		Msg("batch match done")
	writeJSON(w, http.StatusOK, resp)
}

// MatchDetail returns a recorded explanation by key.
func (h *Handler) MatchDetail(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d := h.cache.Get(key)
	if d == nil {
		httpError(w, http.StatusNotFound, "detail not found or evicted")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Rules returns the current generated rule set.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rules": h.store.Rules()})
}

type generateRequest struct {
	Devices []model.Device `json:"devices"`
}

// GenerateRules replaces the catalog. The body is either a JSON device list
// or a multipart spreadsheet upload under "file".
func (h *Handler) GenerateRules(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			httpError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()
		n, err := h.store.LoadFile(file, header.Filename)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": n, "rules": len(h.store.Rules())})
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SetDevices(req.Devices); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": len(req.Devices), "rules": len(h.store.Rules())})
}

func descriptionCell(row map[string]string, column string) string {
	if column != "" {
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), column) {
				return v
			}
		}
		return ""
	}
	for _, alias := range descriptionAliases {
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), alias) && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	// Fall back to the widest cell: free-form sheets rarely label columns.
	best := ""
	for _, v := range row {
		if len(v) > len(best) {
			best = v
		}
	}
	return best
}
