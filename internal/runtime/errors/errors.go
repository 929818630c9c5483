package errors

import sterrors "errors"

var (
	ErrParticipantRequired  = sterrors.New("ddsflow: domain participant is required")
	ErrParticipantClosed    = sterrors.New("ddsflow: domain participant is closed")
	ErrInvalidDomainID      = sterrors.New("ddsflow: domain id must not be negative")
	ErrTopicRequired        = sterrors.New("ddsflow: topic name is required")
	ErrDataCallbackRequired = sterrors.New("ddsflow: data callback is required")
	ErrTypeMismatch         = sterrors.New("ddsflow: topic is already bound to a different data type")
	ErrPublisherClosed      = sterrors.New("ddsflow: publisher is closed")
	ErrSubscriberClosed     = sterrors.New("ddsflow: subscriber is closed")
	ErrLoggerRequired       = sterrors.New("ddsflow: logger is required")
	ErrConfigRequired       = sterrors.New("ddsflow: config is required")
)
