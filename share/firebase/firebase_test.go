package firebase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppDisabledWithoutCredentials(t *testing.T) {
	t.Parallel()

	app, err := NewApp(context.Background(), Config{ProjectID: "demo"})
	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestWithEnv(t *testing.T) {
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "/etc/creds.json")
	t.Setenv("FIREBASE_PROJECT_ID", "from-env")
	t.Setenv("FIREBASE_STORAGE_BUCKET", "bucket-env")

	cfg := Config{ProjectID: "from-config"}.WithEnv()
	assert.Equal(t, "/etc/creds.json", cfg.CredentialsPath)
	assert.Equal(t, "from-config", cfg.ProjectID)
	assert.Equal(t, "bucket-env", cfg.StorageBucket)
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	got := DownloadURL("demo.appspot.com", "shares/S1/a b.png", "tok")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/shares%2FS1%2Fa%20b.png?alt=media&token=tok",
		got)
}

type upload struct {
	object, contentType, token string
	body                       []byte
}

func TestStorageCopierCopy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	var got []upload
	c := &StorageCopier{
		bucket:   "demo.appspot.com",
		client:   srv.Client(),
		maxBytes: 1 << 10,
		upload: func(_ context.Context, object, ctype, token string, body []byte) error {
			got = append(got, upload{object, ctype, token, body})
			return nil
		},
	}

	dst, err := c.Copy(context.Background(), "S1", srv.URL+"/chart.png")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, strings.HasPrefix(got[0].object, "shares/S1/"))
	assert.True(t, strings.HasSuffix(got[0].object, ".png"))
	assert.Equal(t, "image/png", got[0].contentType)
	assert.Equal(t, []byte("png-bytes"), got[0].body)
	assert.Equal(t, DownloadURL("demo.appspot.com", got[0].object, got[0].token), dst)

	_, err = c.Copy(context.Background(), "S1", srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Len(t, got, 1)
}

func TestStorageCopierUploadError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	c := &StorageCopier{
		bucket: "b",
		client: srv.Client(),
		upload: func(context.Context, string, string, string, []byte) error {
			return errors.New("quota exceeded")
		},
	}
	_, err := c.Copy(context.Background(), "S1", srv.URL+"/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
