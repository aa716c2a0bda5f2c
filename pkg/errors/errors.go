package errors

import (
	"encoding/json"
	"errors"
)

// Representation of errors in the API. These are divided into a small
// number of categories, essentially distinguished by whose fault the
// error is; i.e., is this error:
//  - a problem with kubeingest or a tool it runs, so worth reporting?
//  - not going to work until the user changes their input, e.g., fixing the YAML?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Type string

const (
	// The operation looked fine on paper, but something went wrong
	Server Type = "server"
	// The thing you mentioned, whatever it is, just doesn't exist
	Missing Type = "missing"
	// The input was understood, but it can't be turned into
	// resources as given
	User Type = "user"
)

func IsMissing(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Type == Missing {
		return true
	}
	return false
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = errors.New(jsonable.Err)
	}
	return nil
}

func CoverAllError(err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `Error: ` + err.Error() + `

We don't have a specific help message for the error above.

It would help us remedy this if you log an issue at

    https://github.com/fluxcd/kubeingest/issues

saying what you were doing when you saw this, and quoting the message
at the top.
`,
	}
}

// helpful is implemented by the typed errors in this package, so
// that they can be presented with a help message.
type helpful interface {
	error
	asError() *Error
}

// AsAPIError finds the most specific explanation for err that can be
// presented to a user. Typed errors from this package are converted
// to an *Error with their own help text; anything else is covered
// with CoverAllError.
func AsAPIError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var h helpful
	if errors.As(err, &h) {
		return h.asError()
	}
	return CoverAllError(err)
}
