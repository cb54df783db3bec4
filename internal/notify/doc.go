package notify

// Package notify is the duplex channel abstraction the pipeline reports
// progress through. Every Sender in this package is safe for concurrent use
// by the audio and video roles; ordering is preserved per calling goroutine.
