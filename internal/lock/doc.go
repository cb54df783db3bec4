package lock

// Package lock serialises work on the same artifact across concurrent
// requests. The in-memory Locker covers a single process; the Redis Locker
// covers every process sharing one data directory.
