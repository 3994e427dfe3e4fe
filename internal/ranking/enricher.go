package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const anonymousDisplayName = "Anonymous"

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the public part of a user document, owned by the users service.
type Profile struct {
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
}

func anonymousProfile() Profile {
	return Profile{DisplayName: anonymousDisplayName}
}

// ProfileEnricher resolves display profiles, keeping them in an in-process cache.
type ProfileEnricher struct {
	store      docstore.Store
	cache      *freecache.Cache
	ttlSeconds int
}

func NewProfileEnricher(store docstore.Store, cacheSizeMB, ttlSeconds int) *ProfileEnricher {
	megabyte := 1024 * 1024
	return &ProfileEnricher{
		store:      store,
		cache:      freecache.NewCache(cacheSizeMB * megabyte),
		ttlSeconds: ttlSeconds,
	}
}

func (e *ProfileEnricher) Profile(ctx context.Context, userID string) (_ Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "enricher.ranking.profile")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	cacheKey := []byte(fmt.Sprintf("profile::%s", userID))
	if cached, err := e.cache.Get(cacheKey); err == nil {
		var p Profile
		unmarshalErr := json.Unmarshal(cached, &p)
		if unmarshalErr == nil {
			return p, nil
		}
		log.Errorf("unmarshal cached profile [%s]: %s", userID, unmarshalErr)
	}

	var p Profile
	if err := e.store.Get(ctx, docstore.CollectionUsers, userID, &p); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile [%s]: %w", userID, err)
	}
	if p.DisplayName == "" {
		p.DisplayName = anonymousDisplayName
	}

	if profileJson, err := json.Marshal(p); err == nil {
		if err := e.cache.Set(cacheKey, profileJson, e.ttlSeconds); err != nil {
			log.Debugf("cache profile [%s]: %s", userID, err)
		}
	}
	return p, nil
}
