package pipeline

// Package pipeline runs one media request end to end: resolve, cache check
// under a per-artifact lock, acquisition into a temporary workspace, then the
// audio and video roles concurrently, and finally the media payload.
