package platform

// Package platform contains filesystem and external tooling glue: the
// workspace source selector, the artifact cache predicate, atomic artifact
// commits, segment listing and the yt-dlp JSON boundary parser.
