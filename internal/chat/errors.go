package chat

import "errors"

// MaxMessageLength bounds message content after trimming.
const MaxMessageLength = 1000

var (
	// ErrUserNotFound rejects a join whose user id is unknown to the
	// directory. No session is created.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotJoined rejects messages and typing events from a connection
	// without a registered session.
	ErrNotJoined = errors.New("not joined to chat")
	// ErrEmptyMessage rejects content that is empty after trimming.
	ErrEmptyMessage = errors.New("message content cannot be empty")
	// ErrMessageTooLong rejects over-length content; it is never truncated.
	ErrMessageTooLong = errors.New("message content cannot exceed 1000 characters")
	// ErrPersistenceFailed wraps a message-store failure. The message is
	// not broadcast and not retried.
	ErrPersistenceFailed = errors.New("failed to save message")
	// ErrHistoryUnavailable wraps a failed history read when the cache is
	// cold and the store query fails too.
	ErrHistoryUnavailable = errors.New("failed to fetch messages")
)

// UserMessage maps an operation error to the text sent in the error frame
// to the originating connection. Internal causes are not leaked.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrNotJoined):
		return "You must join the chat first"
	case errors.Is(err, ErrEmptyMessage):
		return "Message content cannot be empty"
	case errors.Is(err, ErrMessageTooLong):
		return "Message content cannot exceed 1000 characters"
	case errors.Is(err, ErrPersistenceFailed):
		return "Failed to send message"
	case errors.Is(err, ErrHistoryUnavailable):
		return "Failed to fetch messages"
	default:
		return "Something went wrong"
	}
}
