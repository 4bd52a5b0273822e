package pm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyResponse = errors.New("pm: no response body from portfolio manager")

// InvalidMeterCode is returned when a meter's type and unit of measure do not go together.
const InvalidMeterCode = "-200"

// Error is a failure reported by Portfolio Manager, either through the HTTP
// status or an error response document.
type Error struct {
	Status      int
	Number      string
	Description string
}

func (e *Error) Error() string {
	switch {
	case e.Number != "":
		return fmt.Sprintf("portfolio manager error %s: %s", e.Number, e.Description)
	case e.Description != "":
		return fmt.Sprintf("portfolio manager status %d: %s", e.Status, e.Description)
	}
	return fmt.Sprintf("portfolio manager status %d", e.Status)
}

func (e *Error) InvalidMeter() bool {
	return e.Number == InvalidMeterCode
}

func (e *Error) NotFound() bool {
	return e.Status == 404
}

type errorResponse struct {
	XMLName xml.Name `xml:"response"`
	Status  string   `xml:"status,attr"`
	Errors  []struct {
		Number      string `xml:"errorNumber,attr"`
		Description string `xml:"errorDescription,attr"`
	} `xml:"errors>error"`
}

// responseError extracts an *Error from a body with <response status="Error">.
// A status of 0 means the HTTP exchange itself succeeded.
func responseError(status int, body []byte) *Error {
	var resp errorResponse
	if err := xml.Unmarshal(body, &resp); err != nil || !strings.EqualFold(resp.Status, "error") {
		if status >= 200 && status < 300 || status == 0 {
			return nil
		}
		return &Error{Status: status, Description: truncate(strings.TrimSpace(string(body)), 200)}
	}
	pmErr := &Error{Status: status}
	if len(resp.Errors) > 0 {
		pmErr.Number = resp.Errors[0].Number
		descriptions := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			descriptions = append(descriptions, e.Description)
		}
		pmErr.Description = strings.Join(descriptions, "; ")
	}
	return pmErr
}

// IsInvalidMeter reports whether err carries the invalid meter type/unit code.
func IsInvalidMeter(err error) bool {
	var pmErr *Error
	return errors.As(err, &pmErr) && pmErr.InvalidMeter()
}

func IsNotFound(err error) bool {
	var pmErr *Error
	return errors.As(err, &pmErr) && pmErr.NotFound()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
