// Package firebase backs share exports with Cloud Firestore documents and
// Firebase Storage image copies.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	fb "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/share"
)

// ErrDisabled is returned by NewApp when no credentials are configured.
var ErrDisabled = errors.New("firebase: no credentials configured")

// maxBatchWrites is the Firestore limit on writes in one transaction.
const maxBatchWrites = 500

type Config struct {
	ProjectID       string
	StorageBucket   string
	CredentialsPath string
	CredentialsJSON string
}

// WithEnv fills empty fields of c from the FIREBASE_* variables.
func (c Config) WithEnv() Config {
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	set(&c.CredentialsPath, "FIREBASE_CREDENTIALS_PATH")
	set(&c.CredentialsJSON, "FIREBASE_CREDENTIALS_JSON")
	set(&c.ProjectID, "FIREBASE_PROJECT_ID")
	set(&c.StorageBucket, "FIREBASE_STORAGE_BUCKET")
	return c
}

// NewApp initializes a Firebase app from a credentials file or inline JSON.
func NewApp(ctx context.Context, cfg Config) (*fb.App, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsPath != "":
		opt = option.WithCredentialsFile(cfg.CredentialsPath)
	case cfg.CredentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	default:
		return nil, ErrDisabled
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	logger.Info(ctx, "firebase initialized", "project_id", cfg.ProjectID)
	return app, nil
}

// FirestoreStore commits share documents in a single Firestore transaction.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, app *fb.App) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Commit(ctx context.Context, docs []share.Document) error {
	if len(docs) > maxBatchWrites {
		return fmt.Errorf("firestore: %d documents exceeds batch limit of %d", len(docs), maxBatchWrites)
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, d := range docs {
			if err := tx.Set(s.client.Collection(d.Collection).Doc(d.ID), d.Data); err != nil {
				return fmt.Errorf("set %s/%s: %w", d.Collection, d.ID, err)
			}
		}
		return nil
	})
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// uploadFunc writes one object with a download token.
type uploadFunc func(ctx context.Context, object, contentType, token string, body []byte) error

// StorageCopier copies images into the Firebase Storage bucket under
// shares/<shareID>/ and returns a token download URL.
type StorageCopier struct {
	bucket   string
	client   *http.Client
	maxBytes int64
	upload   uploadFunc
}

func NewStorageCopier(ctx context.Context, app *fb.App, bucket string) (*StorageCopier, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting storage client: %w", err)
	}

	var handle *gcs.BucketHandle
	if bucket == "" {
		handle, err = client.DefaultBucket()
	} else {
		handle, err = client.Bucket(bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting bucket: %w", err)
	}
	if bucket == "" {
		attrs, err := handle.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("error reading bucket attrs: %w", err)
		}
		bucket = attrs.Name
	}

	return &StorageCopier{
		bucket:   bucket,
		client:   http.DefaultClient,
		maxBytes: share.DefaultMaxImageBytes,
		upload:   bucketUpload(handle),
	}, nil
}

func bucketUpload(h *gcs.BucketHandle) uploadFunc {
	return func(ctx context.Context, object, contentType, token string, body []byte) error {
		w := h.Object(object).NewWriter(ctx)
		w.ContentType = contentType
		w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
		if _, err := w.Write(body); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
}

func (c *StorageCopier) Copy(ctx context.Context, shareID, srcURL string) (string, error) {
	body, ctype, err := share.Fetch(ctx, c.client, srcURL, c.maxBytes)
	if err != nil {
		return "", err
	}

	object := fmt.Sprintf("shares/%s/%s%s", shareID, uuid.NewString(), share.Extension(srcURL, ctype))
	token := uuid.NewString()
	if err := c.upload(ctx, object, ctype, token, body); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return DownloadURL(c.bucket, object, token), nil
}

// DownloadURL is the public token URL Firebase Storage serves an object at.
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token))
}
