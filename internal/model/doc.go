package model

// Package model defines domain data structures shared by the pipeline stages:
// media requests, resolved metadata, acquisition strategies, progress events
// and the pipeline state machine. Artifact naming lives here because the
// names double as cache keys.
