package http

import (
	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
)

var ErrorEmptyBody = &kierr.Error{
	Type: kierr.User,
	Help: `The request had no manifests in its body.

POST the YAML to be rendered as the request body, e.g.,

    curl --data-binary @deployment.yaml http://localhost:3031/v1/render
`,
	Err: errors.New("empty request body"),
}

func MakeAPINotFound(path string) *kierr.Error {
	return &kierr.Error{
		Type: kierr.Missing,
		Help: `The API endpoint requested is not supported by this server.

The endpoints served are

    GET  /v1/ping
    GET  /v1/version
    GET  /v1/kinds
    POST /v1/render

and the path requested was

    ` + path + `
`,
		Err: errors.New("API endpoint not found"),
	}
}
