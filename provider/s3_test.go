package provider

import "testing"

func TestParseS3Locator(t *testing.T) {
	tests := []struct {
		locator string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/key", "bucket", "key", false},
		{"s3://bucket/deep/nested/key.bin", "bucket", "deep/nested/key.bin", false},
		{"s3://bucket", "bucket", "", false},
		{"s3://bucket/", "bucket", "", false},
		{"s3://", "", "", true},
		{"http://bucket/key", "", "", true},
		{"bucket/key", "", "", true},
	}

	for _, tt := range tests {
		bucket, key, err := ParseS3Locator(tt.locator)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseS3Locator(%q): expected an error", tt.locator)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseS3Locator(%q): unexpected error: %v", tt.locator, err)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseS3Locator(%q) = (%q, %q), want (%q, %q)",
				tt.locator, bucket, key, tt.bucket, tt.key)
		}
	}
}
