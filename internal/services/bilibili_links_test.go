package services

import (
	"context"
	"testing"

	apperrors "bilimusic/internal/infrastructure/errors"
)

func TestIsBilibiliLink(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want bool
	}{
		{"https://www.bilibili.com/video/BV1GJ411x7h7", true},
		{"http://bilibili.com/video/av170001", true},
		{"【晴天】 https://b23.tv/AbCd123", true},
		{"BV1GJ411x7h7", true},
		{"av170001", true},
		{"周杰伦 晴天", false},
		{"https://example.com/watch", false},
	}
	for _, tt := range tests {
		if got := IsBilibiliLink(tt.text); got != tt.want {
			t.Errorf("IsBilibiliLink(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want string
	}{
		{"https://www.bilibili.com/video/BV1GJ411x7h7/?p=1", "BV1GJ411x7h7"},
		{"bv1GJ411x7h7", "BV1GJ411x7h7"},
		{"https://www.bilibili.com/video/av170001", "av170001"},
		{"AV170001", "av170001"},
		{"look https://b23.tv/AbCd123 here", "https://b23.tv/AbCd123"},
		{"nothing here", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.text); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestBilibiliClient_ResolveShortLink(t *testing.T) {
	t.Parallel()
	fake := newFakeBilibili(t)
	client := fake.client()
	ctx := context.Background()

	id, err := client.ResolveShortLink(ctx, fake.server.URL+"/short/AbCd123")
	if err != nil {
		t.Fatalf("ResolveShortLink() error = %v", err)
	}
	if id != "BV1abc" {
		t.Errorf("ResolveShortLink() = %q, want BV1abc", id)
	}

	if _, err := client.ResolveShortLink(ctx, fake.server.URL+"/short/dead"); !apperrors.IsValidation(err) {
		t.Errorf("ResolveShortLink(dead) error = %v, want VALIDATION", err)
	}
}
