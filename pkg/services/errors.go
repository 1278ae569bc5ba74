package services

import "errors"

// Error taxonomy of the forecast and siting engine. Callers classify with errors.Is.
var (
	// ErrUnknownDistrict means the district is absent from the time series.
	ErrUnknownDistrict = errors.New("unknown district")
	// ErrInvalidTargetDate means the target date is missing or unparseable.
	ErrInvalidTargetDate = errors.New("invalid target date")
	// ErrPredictorFailure means the regression call failed for a district.
	ErrPredictorFailure = errors.New("predictor failure")
	// ErrCancelled means the run was abandoned because the caller left or the server is stopping.
	ErrCancelled = errors.New("prediction cancelled")
	// ErrConfiguration means the engine cannot start with the given dataset or model.
	ErrConfiguration = errors.New("configuration error")
)

// Assistant errors.
var (
	// ErrEmptyQuery means the question was blank.
	ErrEmptyQuery = errors.New("query is required")
	// ErrAssistantUnavailable means the language model could not be reached.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
