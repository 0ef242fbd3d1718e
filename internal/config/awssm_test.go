package config

import (
	"context"
	"testing"
	"time"
)

func TestResolve_AWSSM_NoCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Without valid AWS credentials the lookup fails rather than passing the reference through
	val, err := SecretsConfig{AWSRegion: "us-east-1"}.Resolve(ctx, "${AWS_SM:nonexistent-secret}")
	if err == nil {
		t.Errorf("expected error when AWS credentials are not configured, got %q", val)
	}
}
