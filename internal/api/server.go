package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"simpleseq/internal/engine"
	"simpleseq/internal/model"
)

const maxBodyBytes = 1 << 20

// NewServer wires the sequence handlers into a router and exposes a health check.
func NewServer(store *engine.Store, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return HandlerWithOptions(&Server{store: store}, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err)
		},
	})
}

// Server implements ServerInterface on top of an engine.Store.
type Server struct {
	store *engine.Store
}

var _ ServerInterface = (*Server)(nil)

type ErrorResponse struct {
	Message string `json:"message"`
}

type ValuesBody struct {
	Values []model.Value `json:"values"`
}

type ValueBody struct {
	Value model.Value `json:"value"`
}

type SpliceBody struct {
	Start int `json:"start"`
	// Count omitted removes everything from Start on.
	Count  *int          `json:"count,omitempty"`
	Values []model.Value `json:"values,omitempty"`
}

type LengthBody struct {
	Length int `json:"length"`
}

type FillBody struct {
	Value model.Value `json:"value"`
	Start int         `json:"start"`
	End   *int        `json:"end,omitempty"`
}

type SequenceResponse struct {
	Name   string        `json:"name"`
	Length int           `json:"length"`
	Values []model.Value `json:"values"`
}

type NamesResponse struct {
	Names []string `json:"names"`
}

type ElementResponse struct {
	Found bool        `json:"found"`
	Value model.Value `json:"value"`
}

type SetResponse struct {
	Applied bool `json:"applied"`
}

type JoinResponse struct {
	Joined string `json:"joined"`
}

func (s *Server) ListSequences(w http.ResponseWriter, r *http.Request) {
	names := s.store.Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, NamesResponse{Names: names})
}

func (s *Server) CreateSequence(w http.ResponseWriter, r *http.Request, name string) {
	var body ValuesBody
	if !decodeBody(w, r, &body, true) {
		return
	}
	if err := s.store.Create(name, body.Values); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.writeSequence(w, r, http.StatusCreated, name)
}

func (s *Server) GetSequence(w http.ResponseWriter, r *http.Request, name string) {
	s.writeSequence(w, r, http.StatusOK, name)
}

func (s *Server) DeleteSequence(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.store.Drop(name); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetElement(w http.ResponseWriter, r *http.Request, name string, index int) {
	v, found, err := s.store.Get(name, index)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, ElementResponse{Found: false, Value: model.Null})
		return
	}
	writeJSON(w, http.StatusOK, ElementResponse{Found: true, Value: v})
}

func (s *Server) SetElement(w http.ResponseWriter, r *http.Request, name string, index int) {
	var body ValueBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	applied, err := s.store.Set(name, index, body.Value)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SetResponse{Applied: applied})
}

func (s *Server) AppendValues(w http.ResponseWriter, r *http.Request, name string) {
	s.grow(w, r, name, s.store.Append)
}

func (s *Server) PrependValues(w http.ResponseWriter, r *http.Request, name string) {
	s.grow(w, r, name, s.store.Prepend)
}

func (s *Server) grow(w http.ResponseWriter, r *http.Request, name string, op func(string, ...model.Value) (int, error)) {
	var body ValuesBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	n, err := op(name, body.Values...)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LengthBody{Length: n})
}

func (s *Server) RemoveLast(w http.ResponseWriter, r *http.Request, name string) {
	s.shrink(w, r, name, s.store.RemoveLast)
}

func (s *Server) RemoveFirst(w http.ResponseWriter, r *http.Request, name string) {
	s.shrink(w, r, name, s.store.RemoveFirst)
}

func (s *Server) shrink(w http.ResponseWriter, r *http.Request, name string, op func(string) (model.Value, bool, error)) {
	v, found, err := op(name)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ElementResponse{Found: found, Value: v})
}

func (s *Server) SpliceSequence(w http.ResponseWriter, r *http.Request, name string) {
	var body SpliceBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	count, toEnd := 0, body.Count == nil
	if !toEnd {
		count = *body.Count
	}
	removed, err := s.store.Splice(name, body.Start, count, toEnd, body.Values...)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesBody{Values: nonNil(removed)})
}

func (s *Server) SetLength(w http.ResponseWriter, r *http.Request, name string) {
	var body LengthBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	if err := s.store.SetLen(name, body.Length); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.writeSequence(w, r, http.StatusOK, name)
}

func (s *Server) FillSequence(w http.ResponseWriter, r *http.Request, name string) {
	var body FillBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	if err := s.store.Fill(name, body.Value, body.Start, body.End); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.writeSequence(w, r, http.StatusOK, name)
}

func (s *Server) ReverseSequence(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.store.Reverse(name); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.writeSequence(w, r, http.StatusOK, name)
}

func (s *Server) SortSequence(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.store.Sort(name); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.writeSequence(w, r, http.StatusOK, name)
}

func (s *Server) SliceSequence(w http.ResponseWriter, r *http.Request, name string, params SliceSequenceParams) {
	start := 0
	if params.Start != nil {
		start = *params.Start
	}
	values, err := s.store.Slice(name, start, params.End)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesBody{Values: nonNil(values)})
}

func (s *Server) SearchSequence(w http.ResponseWriter, r *http.Request, name string, params SearchSequenceParams) {
	v, err := model.ParseValue(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.store.Search(name, v)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) JoinSequence(w http.ResponseWriter, r *http.Request, name string, params JoinSequenceParams) {
	sep := ","
	if params.Sep != nil {
		sep = *params.Sep
	}
	joined, err := s.store.Join(name, sep)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{Joined: joined})
}

func (s *Server) FlattenSequence(w http.ResponseWriter, r *http.Request, name string, params FlattenSequenceParams) {
	depth := 1
	if params.Depth != nil {
		depth = *params.Depth
	}
	values, err := s.store.Flat(name, depth)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesBody{Values: nonNil(values)})
}

func (s *Server) ConcatSequences(w http.ResponseWriter, r *http.Request, params ConcatSequencesParams) {
	values, err := s.store.Concat(params.Names...)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesBody{Values: nonNil(values)})
}

func (s *Server) writeSequence(w http.ResponseWriter, r *http.Request, status int, name string) {
	values, err := s.store.Snapshot(name)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, SequenceResponse{Name: name, Length: len(values), Values: nonNil(values)})
}

// decodeBody reads a JSON request body into dst. An empty body is accepted
// only when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if len(data) == 0 {
		if optional {
			return true
		}
		writeError(w, http.StatusBadRequest, errors.New("request body is required"))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrSequenceNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrSequenceExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, engine.ErrInvalidName), errors.Is(err, engine.ErrLengthLimit), errors.Is(err, model.ErrUnsupportedJSON):
		writeError(w, http.StatusBadRequest, err)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorResponse{Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func nonNil(values []model.Value) []model.Value {
	if values == nil {
		return []model.Value{}
	}
	return values
}
