package main

import (
	"context"
	"reflect"
	"testing"
)

func TestRelatedRewriter(t *testing.T) {
	tests := []struct {
		name     string
		list     string
		expected []string
	}{
		{"single", "def", []string{"https://youtu.be/abc", "def"}},
		{"trims and skips empties", " def, ,ghi ,", []string{"https://youtu.be/abc", "def", "ghi"}},
		{"only separators", ",,", []string{"https://youtu.be/abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := relatedRewriter(tt.list).Rewrite(context.Background(), "https://youtu.be/abc")
			if err != nil {
				t.Fatalf("Rewrite() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Rewrite() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
