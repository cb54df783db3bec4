package download

// Package download implements acquisition on top of yt-dlp (via
// github.com/lrstanley/go-ytdlp): metadata resolution with playlist and
// live-stream handling, the format ladder, and the tiered download driver
// that escalates to an external downloader on fragmented-stream failures.
