package ai

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// ModelLoadingError is returned when the embedding endpoint reports that the
// model is still warming up. Callers surface it as HTTP 503 with the estimated
// wait so the client can retry.
type ModelLoadingError struct {
	EstimatedTime float64
}

func (e *ModelLoadingError) Error() string {
	return fmt.Sprintf("model loading, estimated %.1fs", e.EstimatedTime)
}

func IsModelLoading(err error) bool {
	var mle *ModelLoadingError
	return errors.As(err, &mle)
}
