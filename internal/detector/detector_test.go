package detector

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, facePath, r.URL.Path)
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"faces_count":3,"faces":[
			{"face_index":0,"embedding":[0.1,0.2],"bbox":[1,2,3,4],"det_score":0.99},
			{"face_index":1,"embedding":[],"det_score":0.2},
			{"face_index":2,"embedding":[0.3,0.4],"det_score":0.87}
		]}`)
	}))
	defer srv.Close()

	faces, err := New(srv.URL+"/", nil).DetectFaces(context.Background(), []byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, 0, faces[0].Index)
	assert.Equal(t, []float32{0.3, 0.4}, faces[1].Embedding)
	assert.Equal(t, []float64{1, 2, 3, 4}, faces[0].BBox)
}

func TestDetectFaces_NoFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"faces_count":0,"faces":[]}`)
	}))
	defer srv.Close()

	faces, err := New(srv.URL, nil).DetectFaces(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_Errors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"server error", http.StatusInternalServerError, "model not loaded", "status 500"},
		{"bad json", http.StatusOK, "{", "failed to parse response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).DetectFaces(context.Background(), []byte{1})
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.wantSub), err.Error())
		})
	}
}

func TestDetectFaces_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).DetectFaces(context.Background(), []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
