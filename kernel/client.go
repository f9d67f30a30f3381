package kernel

import "context"

// Client submits code to one kernel for asynchronous execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Execute must honor cancellation/deadlines while sending.
// - Errors: Execute returns an error only when the submission could not
//   be handed to the kernel; execution outcomes arrive as messages.
type Client interface {
	// Execute submits code and returns the message id of the submission.
	// Every message the kernel emits for this execution carries that id
	// as its correlation key.
	Execute(ctx context.Context, code string) (msgID string, err error)
}

// Connection is a live kernel session owned by the pool: a Client plus
// the inbound side of the kernel's message channel.
//
// Contract:
// - Messages returns the same channel on every call; the channel is
//   closed when the connection shuts down.
// - Ownership: exactly one consumer may range over Messages.
type Connection interface {
	Client

	// Messages yields every inbound message in the order the kernel
	// emitted it.
	Messages() <-chan Message

	// Close shuts the session down and closes the Messages channel.
	Close() error
}
