package storage

import (
	"context"
	"strings"
	"testing"
)

func TestSplitPublicEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		base     string
		prefix   string
		wantErr  bool
	}{
		{"https://files.example.com", "https://files.example.com", "", false},
		{"https://example.com/s3/", "https://example.com", "/s3", false},
		{"http://localhost:9000/minio/api", "http://localhost:9000", "/minio/api", false},
		{"files.example.com", "", "", true},
		{"://bad", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			base, prefix, err := SplitPublicEndpoint(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if base != tt.base || prefix != tt.prefix {
				t.Fatalf("expected (%q, %q), got (%q, %q)", tt.base, tt.prefix, base, prefix)
			}
		})
	}
}

func TestWithPathPrefix(t *testing.T) {
	signed := "https://example.com/exports/exp_1.json?X-Amz-Signature=abc"

	got, err := WithPathPrefix(signed, "/s3")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/s3/exports/exp_1.json?X-Amz-Signature=abc" {
		t.Fatalf("unexpected url %s", got)
	}

	got, err = WithPathPrefix(signed, "")
	if err != nil || got != signed {
		t.Fatalf("expected url unchanged, got %s (%v)", got, err)
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("exports/exp_1.json"); got != "application/json" {
		t.Fatalf("unexpected json type %s", got)
	}
	if got := ContentType("exports/blob"); got != "application/octet-stream" {
		t.Fatalf("unexpected fallback type %s", got)
	}
}

func TestPresignGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewClient(ctx, ClientParams{
		Bucket:         "exports",
		Region:         "us-east-1",
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://files.example.com/s3",
		AccessKey:      "key",
		SecretKey:      "secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	link, err := c.PresignGet(ctx, "exports/exp_1.json")
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.HasPrefix(link, "https://files.example.com/s3/exports/exports/exp_1.json?") {
		t.Fatalf("unexpected link %s", link)
	}
	if !strings.Contains(link, "X-Amz-Expires=900") {
		t.Fatalf("expected a 15 minute expiry in %s", link)
	}

	if _, err := NewClient(ctx, ClientParams{}); err == nil {
		t.Fatal("expected error without a bucket")
	}
}
