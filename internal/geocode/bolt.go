package geocode

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"provider-finder/internal/models"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketGeocode = []byte("geocode")

type boltEntry struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BoltCache keeps resolutions in a bbolt file so they survive restarts.
// Expiry is checked on read; expired entries are removed lazily.
type BoltCache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
	log *slog.Logger
}

func OpenBoltCache(path string, ttl time.Duration, log *slog.Logger) (*BoltCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketGeocode)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &BoltCache{db: db, ttl: ttl, now: time.Now, log: log}, nil
}

func (b *BoltCache) Close() error {
	return b.db.Close()
}

func (b *BoltCache) Get(address string) (models.Coordinate, bool) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketGeocode).Get([]byte(address)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return models.Coordinate{}, false
	}

	var e boltEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		b.log.Warn("dropping unreadable geocode cache entry", "address", address, "err", err)
		b.delete(address)
		return models.Coordinate{}, false
	}
	if !b.now().Before(e.ExpiresAt) {
		b.delete(address)
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: e.Lat, Lon: e.Lon}, true
}

func (b *BoltCache) Set(address string, c models.Coordinate) {
	data, err := json.Marshal(boltEntry{Lat: c.Lat, Lon: c.Lon, ExpiresAt: b.now().Add(b.ttl)})
	if err != nil {
		return
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGeocode).Put([]byte(address), data)
	})
	if err != nil {
		b.log.Warn("geocode cache write failed", "address", address, "err", err)
	}
}

func (b *BoltCache) delete(address string) {
	_ = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGeocode).Delete([]byte(address))
	})
}
