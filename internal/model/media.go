package model

// ResolvedMedia is the typed view of extraction-service metadata for one media item
type ResolvedMedia struct {
	ID                 string
	Title              string
	LikeCount          *int64
	ViewCount          *int64
	Duration           *float64
	IsLive             bool
	Extractor          string
	PlaylistSiblingIDs []string
}

// MediaResult is the final payload of a request
type MediaResult struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	LikeCount      *int64        `json:"like_count"`
	ViewCount      *int64        `json:"view_count"`
	Duration       *float64      `json:"duration"`
	PlaylistVideos []string      `json:"playlist_videos,omitempty"`
	Files          []string      `json:"-"`
	State          PipelineState `json:"-"`
	FailedRoles    []Role        `json:"-"`
}

// NewMediaResult builds the result payload for the given media
func NewMediaResult(media *ResolvedMedia) *MediaResult {
	res := &MediaResult{
		ID:        media.ID,
		Title:     media.Title,
		LikeCount: media.LikeCount,
		ViewCount: media.ViewCount,
		Duration:  media.Duration,
	}
	if len(media.PlaylistSiblingIDs) > 0 {
		res.PlaylistVideos = append([]string(nil), media.PlaylistSiblingIDs...)
	}
	return res
}
