package plantapi

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// AnalysisCache stores serialized analysis results by fingerprint.
type AnalysisCache interface {
	GetAnalysisCache(fingerprint string, maxAge time.Duration) ([]byte, error)
	SetAnalysisCache(fingerprint string, data []byte) error
}

// CachedClient wraps a Client and reuses earlier analyses of the same photo
// with the same description. Only successful analyses are cached.
type CachedClient struct {
	*Client
	cache  AnalysisCache
	maxAge time.Duration
}

// NewCachedClient creates a cached client. maxAge <= 0 keeps entries forever.
func NewCachedClient(inner *Client, cache AnalysisCache, maxAge time.Duration) *CachedClient {
	return &CachedClient{Client: inner, cache: cache, maxAge: maxAge}
}

// Fingerprint identifies an analysis request by image bytes and context text.
// Lengths are written before each part so that boundaries cannot collide.
func Fingerprint(image []byte, contextText string) string {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	binary.Write(h, binary.LittleEndian, int64(len(image)))
	h.Write(image)
	binary.Write(h, binary.LittleEndian, int64(len(contextText)))
	h.Write([]byte(contextText))
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzePlant implements the analysis call with caching.
func (c *CachedClient) AnalyzePlant(ctx context.Context, image Image, contextText string) (*AnalysisResult, error) {
	fp := Fingerprint(image.Data, contextText)

	if c.cache != nil {
		data, err := c.cache.GetAnalysisCache(fp, c.maxAge)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check analysis cache")
		} else if data != nil {
			var cached AnalysisResult
			if err := json.Unmarshal(data, &cached); err != nil {
				log.Warn().Err(err).Msg("discarding unreadable analysis cache entry")
			} else {
				log.Debug().Str("fingerprint", fp[:16]).Msg("analysis cache hit")
				return &cached, nil
			}
		}
	}

	result, err := c.Client.AnalyzePlant(ctx, image, contextText)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = c.cache.SetAnalysisCache(fp, data)
		}
		if err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("fingerprint", fp[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}
