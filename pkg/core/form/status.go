package form

// Status codes
const (
	StatusOK               = "200"
	StatusTransportFailure = "500"
)

// StatusKind classifies the outcome of a submission
type StatusKind int

const (
	// KindNone means nothing has been submitted yet
	KindNone StatusKind = iota
	// KindSuccess means the service reported a truthy success value
	KindSuccess
	// KindRejected means the service was reached but reported failure
	KindRejected
	// KindTransportFailure means the request could not be sent or its response could not be read
	KindTransportFailure
)

// Status is the recorded outcome of the last submission
type Status struct {
	Kind    StatusKind
	Value   string
	Message string
	Err     error
}

func transportFailure(err error) Status {
	return Status{Kind: KindTransportFailure, Value: StatusTransportFailure, Err: err}
}

// ShowIndicator reports whether the status should be displayed as an error label.
// Anything recorded other than the success code is shown.
func (s Status) ShowIndicator() bool {
	return s.Kind != KindNone && s.Value != StatusOK
}

// Label is the text of the status indicator
func (s Status) Label() string {
	switch s.Kind {
	case KindRejected:
		if s.Message != "" {
			return "Request rejected: " + s.Message
		}
		return "Request rejected"
	case KindTransportFailure:
		return s.Value
	case KindSuccess:
		return s.Value
	}
	return ""
}
