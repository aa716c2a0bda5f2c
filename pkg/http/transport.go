package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/ghodss/yaml"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
)

func NewAPIRouter() *mux.Router {
	r := mux.NewRouter()

	r.NewRoute().Name(Ping).Methods("GET").Path("/v1/ping")
	r.NewRoute().Name(Version).Methods("GET").Path("/v1/version")
	r.NewRoute().Name(Kinds).Methods("GET").Path("/v1/kinds")
	r.NewRoute().Name(Render).Methods("POST").Path("/v1/render")
	r.NewRoute().Name(Metrics).Methods("GET").Path("/metrics")

	return r
}

func MakeURL(endpoint string, router *mux.Router, routeName string, urlParams ...string) (*url.URL, error) {
	if len(urlParams)%2 != 0 {
		panic("urlParams must be even!")
	}

	endpointURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing endpoint %s", endpoint)
	}
	route := router.Get(routeName)
	if route == nil {
		return nil, errors.New("no route with name " + routeName)
	}
	routeURL, err := route.URLPath()
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving route path %s", routeName)
	}

	v := url.Values{}
	for i := 0; i < len(urlParams); i += 2 {
		if urlParams[i+1] != "" {
			v.Add(urlParams[i], urlParams[i+1])
		}
	}

	endpointURL.Path = path.Join(endpointURL.Path, routeURL.Path)
	endpointURL.RawQuery = v.Encode()
	return endpointURL, nil
}

func WriteError(w http.ResponseWriter, r *http.Request, code int, err error) {
	// Clients that can decode structured errors say so with an
	// Accept header; anyone else gets the error text.
	if len(r.Header.Get("Accept")) > 0 {
		switch negotiateContentType(r, []string{ContentTypeJSON, ContentTypeText}) {
		case ContentTypeJSON:
			body, encodeErr := json.Marshal(err)
			if encodeErr != nil {
				w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, "Error encoding error response: %s\n\nOriginal error: %s", encodeErr.Error(), err.Error())
				return
			}
			w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "application/json; charset=utf-8")
			w.WriteHeader(code)
			w.Write(body)
			return
		case ContentTypeText:
			w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
			w.WriteHeader(code)
			var kerr *kierr.Error
			if errors.As(err, &kerr) && kerr.Help != "" {
				fmt.Fprint(w, kerr.Help)
			} else {
				fmt.Fprint(w, err.Error())
			}
			return
		}
	}
	w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, err.Error())
}

// Response encodes the result as JSON or YAML, whichever the client
// prefers; JSON if it doesn't say.
func Response(w http.ResponseWriter, r *http.Request, result interface{}) {
	if negotiateContentType(r, []string{ContentTypeJSON, ContentTypeYAML}) == ContentTypeYAML {
		YAMLResponse(w, r, result)
		return
	}
	JSONResponse(w, r, result)
}

func JSONResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	body, err := json.Marshal(result)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func YAMLResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	body, err := yaml.Marshal(result)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ErrorResponse writes the error with a status code according to
// its type.
func ErrorResponse(w http.ResponseWriter, r *http.Request, apiError error) {
	outErr := kierr.AsAPIError(apiError)
	var code int
	switch outErr.Type {
	case kierr.Missing:
		code = http.StatusNotFound
	case kierr.User:
		code = http.StatusUnprocessableEntity
	case kierr.Server:
		code = http.StatusInternalServerError
	default:
		code = http.StatusInternalServerError
	}
	WriteError(w, r, code, outErr)
}
