package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamURL    string `json:"upstream_url,omitempty"`
}

// UpstreamError records a non-success HTTP exchange with a collaborator service.
type UpstreamError struct {
	Status int
	URL    string
	Body   string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream %s returned %d", e.URL, e.Status)
	}
	return fmt.Sprintf("upstream %s returned %d: %s", e.URL, e.Status, e.Body)
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.Status
		d.UpstreamURL = upstream.URL
	}

	return d
}
