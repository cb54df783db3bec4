package model

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestMediaRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     MediaRequest
		wantErr bool
	}{
		{"audio only", MediaRequest{URL: "https://youtu.be/abc"}, false},
		{"video", MediaRequest{URL: "https://youtu.be/abc", Width: intPtr(100), Height: intPtr(50)}, false},
		{"empty url", MediaRequest{URL: "  "}, true},
		{"width without height", MediaRequest{URL: "x", Width: intPtr(100)}, true},
		{"height without width", MediaRequest{URL: "x", Height: intPtr(100)}, true},
		{"zero width", MediaRequest{URL: "x", Width: intPtr(0), Height: intPtr(10)}, true},
	}

	for _, test := range tests {
		err := test.req.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", test.name, err, test.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", test.name, err)
		}
	}
}

func TestMediaRequest_Dimensions(t *testing.T) {
	req := MediaRequest{URL: "x", Width: intPtr(1000), Height: intPtr(100)}
	w, h := req.Dimensions(328, 171)
	if w != 328 || h != 100 {
		t.Errorf("Dimensions() = %dx%d, expected 328x100", w, h)
	}

	audio := MediaRequest{URL: "x"}
	w, h = audio.Dimensions(328, 171)
	if w != 0 || h != 0 {
		t.Errorf("Dimensions() for audio = %dx%d, expected 0x0", w, h)
	}
}

func TestMediaRequest_TargetFPS(t *testing.T) {
	tests := []struct {
		fps      *int
		expected int
	}{
		{nil, 0},
		{intPtr(-3), 0},
		{intPtr(0), 0},
		{intPtr(10), 10},
	}

	for _, test := range tests {
		req := MediaRequest{URL: "x", FPS: test.fps}
		if got := req.TargetFPS(); got != test.expected {
			t.Errorf("TargetFPS() = %d, expected %d", got, test.expected)
		}
	}
}

func TestArtifactNames(t *testing.T) {
	if got := AudioName("abc"); got != "abc.dfpwm" {
		t.Errorf("AudioName() = %s, expected abc.dfpwm", got)
	}
	if got := VideoName("abc", 164, 81); got != "abc(164x81).32vid" {
		t.Errorf("VideoName() = %s, expected abc(164x81).32vid", got)
	}
	if VideoName("abc", 164, 81) == VideoName("abc", 328, 171) {
		t.Error("Expected distinct names for distinct dimensions")
	}
}
