package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/internal/api/storage"
)

func TestJobCursor_RoundTrip(t *testing.T) {
	want := &storage.JobCursor{
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 891, time.UTC),
		JobID:     "5c1f4b1e-8f57-4a49-9a51-0d3c3ad7b0f2",
	}

	got, err := DecodeJobCursor(EncodeJobCursor(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeJobCursor(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name    string
		cursor  string
		wantNil bool
		wantErr bool
	}{
		{name: "empty", cursor: "", wantNil: true},
		{name: "not base64", cursor: "***", wantErr: true},
		{name: "missing separator", cursor: encode("12345"), wantErr: true},
		{name: "missing job id", cursor: encode("12345|"), wantErr: true},
		{name: "bad timestamp", cursor: encode("yesterday|abc"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJobCursor(tt.cursor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, got == nil)
		})
	}
}

func TestRecordCursor(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	got, err := DecodeRecordCursor(EncodeRecordCursor(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	tests := []struct {
		name    string
		cursor  string
		want    int64
		wantErr bool
	}{
		{name: "empty", cursor: "", want: 0},
		{name: "not base64", cursor: "***", wantErr: true},
		{name: "not a number", cursor: encode("abc"), wantErr: true},
		{name: "zero", cursor: encode("0"), wantErr: true},
		{name: "negative", cursor: encode("-3"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecordCursor(tt.cursor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
