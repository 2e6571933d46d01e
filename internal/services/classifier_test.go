package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierPredict_ForwardsImageAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "lesion.jpg", header.Filename)
		assert.Equal(t, "image-bytes", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"mel","confidence":0.91,"class_probabilities":{"mel":0.91,"nv":0.09},"heatmap_image":"abc"}`))
	}))
	defer srv.Close()

	client := NewClassifierClient(srv.URL + "/")
	got, err := client.Predict(context.Background(), "lesion.jpg", strings.NewReader("image-bytes"), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "mel", got.Prediction)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	assert.Equal(t, 0.09, got.ClassProbabilities["nv"])
	assert.Equal(t, "abc", got.HeatmapImage)
}

func TestClassifierPredict_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"prediction":"nv","confidence":0.5}`))
	}))
	defer srv.Close()

	_, err := NewClassifierClient(srv.URL).Predict(context.Background(), "a.png", strings.NewReader("x"), "")
	require.NoError(t, err)
}

func TestClassifierPredict_UpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"detail", http.StatusUnprocessableEntity, `{"detail":"Invalid image"}`, "Invalid image"},
		{"error", http.StatusBadRequest, `{"error":"bad upload"}`, "bad upload"},
		{"unparseable", http.StatusInternalServerError, `oops`, "Failed to process image"},
		{"empty", http.StatusServiceUnavailable, `{}`, "Failed to process image"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClassifierClient(srv.URL).Predict(context.Background(), "a.png", strings.NewReader("x"), "")

			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, tc.status, upstream.Status)
			assert.Equal(t, tc.detail, upstream.Detail)
		})
	}
}

func TestClassifierPredict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClassifierClient(srv.URL).Predict(context.Background(), "a.png", strings.NewReader("x"), "")
	require.Error(t, err)

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}
