// Package status maps HTTP status codes to their reason phrases.
package status

type Status struct {
	Code         uint
	ReasonPhrase string
}

// Successful 2XX
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.3
var (
	OK        = add(Status{200, "OK"})
	Created   = add(Status{201, "Created"})
	Accepted  = add(Status{202, "Accepted"})
	NoContent = add(Status{204, "No Content"})
)

// Client Error 4xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.5
var (
	BadRequest           = add(Status{400, "Bad Request"})
	Unauthorized         = add(Status{401, "Unauthorized"})
	Forbidden            = add(Status{403, "Forbidden"})
	NotFound             = add(Status{404, "Not Found"})
	MethodNotAllowed     = add(Status{405, "Method Not Allowed"})
	RequestTimeout       = add(Status{408, "Request Timeout"})
	LengthRequired       = add(Status{411, "Length Required"})
	ContentTooLarge      = add(Status{413, "Content Too Large"})
	UnsupportedMediaType = add(Status{415, "Unsupported Media Type"})
)

// Server Error 5xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.6
var (
	InternalServerError = add(Status{500, "Internal Server Error"})
	NotImplemented      = add(Status{501, "Not Implemented"})
	ServiceUnavailable  = add(Status{503, "Service Unavailable"})
)

var sm = make(map[uint]*Status)

func add(status Status) Status {
	sm[status.Code] = &status
	return status
}

// FromCode looks up a known status. Unknown codes come back usable with a
// generic reason phrase, and ok reports the miss.
func FromCode(code uint) (status Status, ok bool) {
	s, ok := sm[code]
	if !ok {
		return Status{Code: code, ReasonPhrase: "Unknown Status"}, false
	}

	return *s, true
}
