package repository

import "context"

// NotifyJob is one subscriber delivery attempt: the callback to POST to, the
// headers to send, the feed content to deliver, and the retry budget
// remaining.
type NotifyJob struct {
	Callback string
	Headers  map[string]string
	Body     []byte
	MaxTries int
}

// NotifyQueueRepository is the durable FIFO the notify worker drains.
// Implementations must guarantee that a job handed to Pull by one caller is
// never also handed to another concurrent caller.
type NotifyQueueRepository interface {
	Push(ctx context.Context, job NotifyJob) error
	// Pull blocks until a job is available or ctx is done.
	Pull(ctx context.Context) (NotifyJob, error)
	Len(ctx context.Context) (int64, error)
}
