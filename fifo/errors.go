package fifo

import "errors"

var (
	// ErrCapacity indicates an insert whose framed size (prefix plus
	// payload) exceeds the free space currently left in the buffer.
	// Nothing is written.
	ErrCapacity = errors.New("fifo: insufficient free space")

	// ErrRecordTooLarge indicates a payload whose length cannot be
	// represented in the configured prefix width.
	ErrRecordTooLarge = errors.New("fifo: record length exceeds prefix range")

	// ErrVerification indicates a self-test mismatch. A buffer whose
	// self-test fails must not be exposed to callers.
	ErrVerification = errors.New("fifo: self-test verification failed")
)
