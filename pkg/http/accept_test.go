package http

import (
	"net/http"
	"testing"
)

func Test_NegotiateContentType(t *testing.T) {
	// For no accept header, you get your first choice
	want := ContentTypeJSON
	got := negotiateContentType(&http.Request{}, []string{want, ContentTypeYAML})
	if got != want {
		t.Errorf("First choice: Expected %q, got %q", want, got)
	}

	// If there's accept headers but none match, get ""
	h := http.Header{}
	h.Add("Accept", "text/html;q=0.9")
	h.Add("Accept", "image/png")
	got = negotiateContentType(&http.Request{Header: h}, []string{want})
	if got != "" {
		t.Errorf("No matching: expected empty string, got %q", got)
	}

	// If there's accept headers that match, of equal quality (`q`),
	// return the first preference.
	h = http.Header{}
	h.Add("Accept", "application/yaml,application/json,text/html")
	got = negotiateContentType(&http.Request{Header: h}, []string{ContentTypeJSON, ContentTypeYAML})
	if got != ContentTypeJSON {
		t.Errorf("Equal quality: expected %q, got %q", ContentTypeJSON, got)
	}

	// If there's matching accept headers of different quality, pick
	// the highest quality match even if it's not first preference.
	h = http.Header{}
	h.Add("Accept", "application/json;q=0.5,application/yaml;q=1.0")
	got = negotiateContentType(&http.Request{Header: h}, []string{ContentTypeJSON, ContentTypeYAML})
	if got != ContentTypeYAML {
		t.Errorf("Quality beats preference: expected %q, got %q", ContentTypeYAML, got)
	}

	// A wildcard stands for the first preference
	h = http.Header{}
	h.Add("Accept", "*/*")
	got = negotiateContentType(&http.Request{Header: h}, []string{ContentTypeYAML, ContentTypeJSON})
	if got != ContentTypeYAML {
		t.Errorf("Wildcard: expected %q, got %q", ContentTypeYAML, got)
	}

	// q=0 means "not acceptable"
	h = http.Header{}
	h.Add("Accept", "application/json;q=0")
	got = negotiateContentType(&http.Request{Header: h}, []string{ContentTypeJSON})
	if got != "" {
		t.Errorf("Zero quality: expected empty string, got %q", got)
	}
}
