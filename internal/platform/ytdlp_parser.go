package platform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ytget/youcube/internal/model"
)

// yt-dlp result types and extractor names
const (
	TypePlaylist     = "playlist"
	TypeURL          = "url"
	ExtractorGeneric = "generic"
	ExtractorYouTube = "youtube"
)

// GenericIDPrefix disambiguates ids produced by the generic extractor
const GenericIDPrefix = "g"

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ExtractedInfo is the typed record of a yt-dlp info JSON document. The raw
// document is kept so it can be handed back to yt-dlp for the download.
type ExtractedInfo struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Type             string            `json:"_type"`
	URL              string            `json:"url"`
	WebpageURL       string            `json:"webpage_url"`
	WebpageURLDomain string            `json:"webpage_url_domain"`
	Extractor        string            `json:"extractor"`
	ExtractorKey     string            `json:"extractor_key"`
	LikeCount        *int64            `json:"like_count"`
	ViewCount        *int64            `json:"view_count"`
	Duration         *float64          `json:"duration"`
	IsLive           *bool             `json:"is_live"`
	Formats          []json.RawMessage `json:"formats"`
	Entries          []*ExtractedInfo  `json:"entries"`

	raw json.RawMessage
}

// ParseExtractedInfo decodes a yt-dlp info JSON document
func ParseExtractedInfo(data []byte) (*ExtractedInfo, error) {
	var info ExtractedInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if info.ID == "" && !info.IsPlaylist() {
		return nil, fmt.Errorf("yt-dlp output has no id")
	}
	return &info, nil
}

// UnmarshalJSON decodes the known fields and keeps the raw document
func (e *ExtractedInfo) UnmarshalJSON(data []byte) error {
	type plain ExtractedInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = ExtractedInfo(p)
	e.raw = append(json.RawMessage(nil), data...)
	return nil
}

// IsPlaylist reports whether the document describes a playlist
func (e *ExtractedInfo) IsPlaylist() bool {
	return e.Type == TypePlaylist
}

// Live reports whether the media is a live broadcast
func (e *ExtractedInfo) Live() bool {
	return e.IsLive != nil && *e.IsLive
}

// Downloadable reports whether the document carries format data yt-dlp can
// download from without extracting again.
func (e *ExtractedInfo) Downloadable() bool {
	return len(e.raw) > 0 && len(e.Formats) > 0
}

// Incomplete reports whether an entry needs a second resolution to obtain
// full metadata. Flattened playlist listings only carry url stubs.
func (e *ExtractedInfo) Incomplete() bool {
	if e.Type == TypeURL {
		return true
	}
	return e.Extractor == ExtractorYouTube && (e.ViewCount == nil || e.LikeCount == nil)
}

// Target returns the URL or id to resolve this entry again
func (e *ExtractedInfo) Target() string {
	if e.WebpageURL != "" {
		return e.WebpageURL
	}
	if e.URL != "" {
		return e.URL
	}
	return e.ID
}

// MediaID returns the stable, filesystem-safe id of the media. Ids from the
// generic extractor are prefixed with the site domain to avoid collisions.
func (e *ExtractedInfo) MediaID() string {
	id := e.ID
	if e.Extractor == ExtractorGeneric {
		id = GenericIDPrefix + e.WebpageURLDomain + id
	}
	return unsafeIDChars.ReplaceAllString(id, "_")
}

// Media converts the document into the pipeline's media record
func (e *ExtractedInfo) Media() *model.ResolvedMedia {
	return &model.ResolvedMedia{
		ID:        e.MediaID(),
		Title:     e.Title,
		LikeCount: e.LikeCount,
		ViewCount: e.ViewCount,
		Duration:  e.Duration,
		IsLive:    e.Live(),
		Extractor: e.Extractor,
	}
}

// MarshalInfoJSON returns the raw document with its id replaced by id, so
// yt-dlp names downloaded files after the pipeline's media id.
func (e *ExtractedInfo) MarshalInfoJSON(id string) ([]byte, error) {
	if len(e.raw) == 0 {
		return nil, fmt.Errorf("no raw info document for %s", e.ID)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(e.raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode info document: %w", err)
	}
	encoded, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	doc["id"] = encoded
	return json.Marshal(doc)
}

// String returns a short description for logs
func (e *ExtractedInfo) String() string {
	kind := e.Type
	if kind == "" {
		kind = "video"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s (%s)", kind, e.ID, e.Extractor))
}
