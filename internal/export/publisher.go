package export

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultLinkExpiry = 24 * time.Hour

// Published locates an export uploaded to object storage.
type Published struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Publisher uploads rendered exports under a key prefix.
type Publisher struct {
	store  storage.ObjectStorage
	prefix string
	expiry time.Duration
	now    func() time.Time
}

func NewPublisher(store storage.ObjectStorage, prefix string) *Publisher {
	return &Publisher{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		expiry: defaultLinkExpiry,
		now:    time.Now,
	}
}

// Publish stores data as <prefix>/<yyyy>/<mm>/<name>-<yyyymmdd>-<id>.<ext> and
// returns a presigned download link. A failed presign still reports the key.
func (p *Publisher) Publish(ctx context.Context, name string, format Format, data []byte) (*Published, error) {
	now := p.now()
	file := fmt.Sprintf("%s-%s-%s%s", slug(name), now.Format("20060102"), uuid.NewString()[:8], format.Extension())
	key := path.Join(p.prefix, now.Format("2006"), now.Format("01"), file)

	if err := p.store.UploadObject(ctx, key, data, format.ContentType()); err != nil {
		return nil, fmt.Errorf("publish %s: %w", name, err)
	}

	out := &Published{Key: key}
	url, err := p.store.PresignURL(ctx, key, p.expiry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("export uploaded without a download link")
		return out, nil
	}
	out.URL = url

	log.Info().Str("key", key).Int("bytes", len(data)).Msg("export published")
	return out, nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "export"
	}
	return out
}
