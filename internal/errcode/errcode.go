package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable business errors (drop the task, no retry)
// - 5xxx: system errors (retry or abort)
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)
