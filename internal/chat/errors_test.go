package chat

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrUserNotFound, "User not found"},
		{ErrNotJoined, "You must join the chat first"},
		{ErrEmptyMessage, "Message content cannot be empty"},
		{ErrMessageTooLong, "Message content cannot exceed 1000 characters"},
		{ErrPersistenceFailed, "Failed to send message"},
		{ErrHistoryUnavailable, "Failed to fetch messages"},
		{errors.New("pq: connection refused"), "Something went wrong"},
	}

	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessageUnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("%w: pq: connection refused", ErrPersistenceFailed)
	if got := UserMessage(wrapped); got != "Failed to send message" {
		t.Errorf("wrapped cause mapped to %q", got)
	}
	// The internal cause must never leak into the client-facing text.
	if got := UserMessage(wrapped); got == wrapped.Error() {
		t.Error("client-facing text leaked the internal error")
	}
}
