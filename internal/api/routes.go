package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the HTTP surface of the sequence store. Path and query
// parameters are decoded by ServerInterfaceWrapper before a method is called.
type ServerInterface interface {
	// (GET /v1/seq)
	ListSequences(w http.ResponseWriter, r *http.Request)
	// (PUT /v1/seq/{name})
	CreateSequence(w http.ResponseWriter, r *http.Request, name string)
	// (GET /v1/seq/{name})
	GetSequence(w http.ResponseWriter, r *http.Request, name string)
	// (DELETE /v1/seq/{name})
	DeleteSequence(w http.ResponseWriter, r *http.Request, name string)
	// (GET /v1/seq/{name}/at/{index})
	GetElement(w http.ResponseWriter, r *http.Request, name string, index int)
	// (PUT /v1/seq/{name}/at/{index})
	SetElement(w http.ResponseWriter, r *http.Request, name string, index int)
	// (POST /v1/seq/{name}/append)
	AppendValues(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/prepend)
	PrependValues(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/remove-last)
	RemoveLast(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/remove-first)
	RemoveFirst(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/splice)
	SpliceSequence(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/length)
	SetLength(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/fill)
	FillSequence(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/reverse)
	ReverseSequence(w http.ResponseWriter, r *http.Request, name string)
	// (POST /v1/seq/{name}/sort)
	SortSequence(w http.ResponseWriter, r *http.Request, name string)
	// (GET /v1/seq/{name}/slice)
	SliceSequence(w http.ResponseWriter, r *http.Request, name string, params SliceSequenceParams)
	// (GET /v1/seq/{name}/search)
	SearchSequence(w http.ResponseWriter, r *http.Request, name string, params SearchSequenceParams)
	// (GET /v1/seq/{name}/join)
	JoinSequence(w http.ResponseWriter, r *http.Request, name string, params JoinSequenceParams)
	// (GET /v1/seq/{name}/flat)
	FlattenSequence(w http.ResponseWriter, r *http.Request, name string, params FlattenSequenceParams)
	// (GET /v1/concat)
	ConcatSequences(w http.ResponseWriter, r *http.Request, params ConcatSequencesParams)
}

type SliceSequenceParams struct {
	Start *int `form:"start,omitempty" json:"start,omitempty"`
	End   *int `form:"end,omitempty" json:"end,omitempty"`
}

type SearchSequenceParams struct {
	// Value is the JSON encoding of the value to look for.
	Value string `form:"value" json:"value"`
}

type JoinSequenceParams struct {
	Sep *string `form:"sep,omitempty" json:"sep,omitempty"`
}

type FlattenSequenceParams struct {
	Depth *int `form:"depth,omitempty" json:"depth,omitempty"`
}

type ConcatSequencesParams struct {
	Names []string `form:"names" json:"names"`
}

// Unimplemented answers 501 for every operation. Embed it to implement the
// interface incrementally.
type Unimplemented struct{}

func notImplemented(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotImplemented)
}

func (Unimplemented) ListSequences(w http.ResponseWriter, r *http.Request) { notImplemented(w) }
func (Unimplemented) CreateSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) GetSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) DeleteSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) GetElement(w http.ResponseWriter, r *http.Request, name string, index int) {
	notImplemented(w)
}
func (Unimplemented) SetElement(w http.ResponseWriter, r *http.Request, name string, index int) {
	notImplemented(w)
}
func (Unimplemented) AppendValues(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) PrependValues(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) RemoveLast(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) RemoveFirst(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) SpliceSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) SetLength(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) FillSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) ReverseSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) SortSequence(w http.ResponseWriter, r *http.Request, name string) {
	notImplemented(w)
}
func (Unimplemented) SliceSequence(w http.ResponseWriter, r *http.Request, name string, params SliceSequenceParams) {
	notImplemented(w)
}
func (Unimplemented) SearchSequence(w http.ResponseWriter, r *http.Request, name string, params SearchSequenceParams) {
	notImplemented(w)
}
func (Unimplemented) JoinSequence(w http.ResponseWriter, r *http.Request, name string, params JoinSequenceParams) {
	notImplemented(w)
}
func (Unimplemented) FlattenSequence(w http.ResponseWriter, r *http.Request, name string, params FlattenSequenceParams) {
	notImplemented(w)
}
func (Unimplemented) ConcatSequences(w http.ResponseWriter, r *http.Request, params ConcatSequencesParams) {
	notImplemented(w)
}

type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper decodes parameters and dispatches to Handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithLocation("simple", false, "name", runtime.ParamLocationPath, chi.URLParam(r, "name"), &name)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return "", false
	}
	return name, true
}

func (siw *ServerInterfaceWrapper) bindIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	var index int
	err := runtime.BindStyledParameterWithLocation("simple", false, "index", runtime.ParamLocationPath, chi.URLParam(r, "index"), &index)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "index", Err: err})
		return 0, false
	}
	return index, true
}

// bindQuery binds one optional or required form-style query parameter.
func (siw *ServerInterfaceWrapper) bindQuery(w http.ResponseWriter, r *http.Request, explode, required bool, param string, dest interface{}) bool {
	if required && !r.URL.Query().Has(param) {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: param})
		return false
	}
	if err := runtime.BindQueryParameter("form", explode, required, param, r.URL.Query(), dest); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: param, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) ListSequences(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListSequences)
}

// withName adapts the operations that only take the sequence name.
func (siw *ServerInterfaceWrapper) withName(op func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := siw.bindName(w, r)
		if !ok {
			return
		}
		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			op(w, r, name)
		})
	}
}

func (siw *ServerInterfaceWrapper) withNameAndIndex(op func(http.ResponseWriter, *http.Request, string, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := siw.bindName(w, r)
		if !ok {
			return
		}
		index, ok := siw.bindIndex(w, r)
		if !ok {
			return
		}
		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			op(w, r, name, index)
		})
	}
}

func (siw *ServerInterfaceWrapper) SliceSequence(w http.ResponseWriter, r *http.Request) {
	name, ok := siw.bindName(w, r)
	if !ok {
		return
	}
	var params SliceSequenceParams
	if !siw.bindQuery(w, r, true, false, "start", &params.Start) || !siw.bindQuery(w, r, true, false, "end", &params.End) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SliceSequence(w, r, name, params)
	})
}

func (siw *ServerInterfaceWrapper) SearchSequence(w http.ResponseWriter, r *http.Request) {
	name, ok := siw.bindName(w, r)
	if !ok {
		return
	}
	var params SearchSequenceParams
	if !siw.bindQuery(w, r, true, true, "value", &params.Value) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchSequence(w, r, name, params)
	})
}

func (siw *ServerInterfaceWrapper) JoinSequence(w http.ResponseWriter, r *http.Request) {
	name, ok := siw.bindName(w, r)
	if !ok {
		return
	}
	var params JoinSequenceParams
	if !siw.bindQuery(w, r, true, false, "sep", &params.Sep) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.JoinSequence(w, r, name, params)
	})
}

func (siw *ServerInterfaceWrapper) FlattenSequence(w http.ResponseWriter, r *http.Request) {
	name, ok := siw.bindName(w, r)
	if !ok {
		return
	}
	var params FlattenSequenceParams
	if !siw.bindQuery(w, r, true, false, "depth", &params.Depth) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.FlattenSequence(w, r, name, params)
	})
}

func (siw *ServerInterfaceWrapper) ConcatSequences(w http.ResponseWriter, r *http.Request) {
	var params ConcatSequencesParams
	if !siw.bindQuery(w, r, false, true, "names", &params.Names) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ConcatSequences(w, r, params)
	})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every operation of si on a chi router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Get(base+"/v1/seq", wrapper.ListSequences)
		r.Put(base+"/v1/seq/{name}", wrapper.withName(si.CreateSequence))
		r.Get(base+"/v1/seq/{name}", wrapper.withName(si.GetSequence))
		r.Delete(base+"/v1/seq/{name}", wrapper.withName(si.DeleteSequence))
		r.Get(base+"/v1/seq/{name}/at/{index}", wrapper.withNameAndIndex(si.GetElement))
		r.Put(base+"/v1/seq/{name}/at/{index}", wrapper.withNameAndIndex(si.SetElement))
		r.Post(base+"/v1/seq/{name}/append", wrapper.withName(si.AppendValues))
		r.Post(base+"/v1/seq/{name}/prepend", wrapper.withName(si.PrependValues))
		r.Post(base+"/v1/seq/{name}/remove-last", wrapper.withName(si.RemoveLast))
		r.Post(base+"/v1/seq/{name}/remove-first", wrapper.withName(si.RemoveFirst))
		r.Post(base+"/v1/seq/{name}/splice", wrapper.withName(si.SpliceSequence))
		r.Post(base+"/v1/seq/{name}/length", wrapper.withName(si.SetLength))
		r.Post(base+"/v1/seq/{name}/fill", wrapper.withName(si.FillSequence))
		r.Post(base+"/v1/seq/{name}/reverse", wrapper.withName(si.ReverseSequence))
		r.Post(base+"/v1/seq/{name}/sort", wrapper.withName(si.SortSequence))
		r.Get(base+"/v1/seq/{name}/slice", wrapper.SliceSequence)
		r.Get(base+"/v1/seq/{name}/search", wrapper.SearchSequence)
		r.Get(base+"/v1/seq/{name}/join", wrapper.JoinSequence)
		r.Get(base+"/v1/seq/{name}/flat", wrapper.FlattenSequence)
		r.Get(base+"/v1/concat", wrapper.ConcatSequences)
	})
	return r
}
