package convert

// Package convert drives the external transcoder (ffmpeg) and frame encoder
// (sanjuuni): audio conversion to dfpwm, optional video downsampling and
// segmenting, and single or chunked 32vid encoding with a deterministic
// chunk merge. Artifacts are written under a partial name and renamed into
// the data directory only on success.
