package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservo/config"
	"reservo/infras/otel/mocks"
	"reservo/infras/s3"
)

func TestKeyFromURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.S3.PublicDomain = "https://cdn.example.com/"
	cfg.External.S3.BucketName = "tables"
	cfg.External.S3.Region = "auto"

	store := s3.New(cfg, mocks.NewOtel())

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "uploaded object", url: "https://cdn.example.com/table/5/photo.png", want: "table/5/photo.png"},
		{name: "foreign host", url: "https://images.example.org/table/5/photo.png", want: ""},
		{name: "empty", url: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.KeyFromURL(tt.url))
		})
	}
}
