package submission

import "fmt"

// Kind classifies why a submission was rejected or failed.
type Kind int

const (
	KindMissingPhoto Kind = iota
	KindMissingPerformance
	KindInvalidPerformance
	KindUnsupportedMedia
	KindProcessing
	KindStorage
)

// Failure is a submission error with a user-facing message and, for
// processing and storage failures, the upstream diagnostic detail.
type Failure struct {
	Kind    Kind
	Message string
	Detail  string
}

func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s", f.Message, f.Detail)
	}
	return f.Message
}

// ServerSide reports whether the failure is a backend problem rather than a
// bad request. The transport layer maps this to the status class.
func (f *Failure) ServerSide() bool {
	return f.Kind == KindProcessing || f.Kind == KindStorage
}

func newFailure(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func newFailureDetail(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Detail: err.Error()}
}
