package errors

import "testing"

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors have expected messages
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrParticipantRequired", ErrParticipantRequired, "ddsflow: domain participant is required"},
		{"ErrParticipantClosed", ErrParticipantClosed, "ddsflow: domain participant is closed"},
		{"ErrInvalidDomainID", ErrInvalidDomainID, "ddsflow: domain id must not be negative"},
		{"ErrTopicRequired", ErrTopicRequired, "ddsflow: topic name is required"},
		{"ErrDataCallbackRequired", ErrDataCallbackRequired, "ddsflow: data callback is required"},
		{"ErrTypeMismatch", ErrTypeMismatch, "ddsflow: topic is already bound to a different data type"},
		{"ErrPublisherClosed", ErrPublisherClosed, "ddsflow: publisher is closed"},
		{"ErrSubscriberClosed", ErrSubscriberClosed, "ddsflow: subscriber is closed"},
		{"ErrLoggerRequired", ErrLoggerRequired, "ddsflow: logger is required"},
		{"ErrConfigRequired", ErrConfigRequired, "ddsflow: config is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}
