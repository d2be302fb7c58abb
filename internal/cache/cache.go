package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"stockroom/internal/domain"
)

// ReportKey identifies one cached report snapshot. Generation moves on every
// mutation and Minute buckets the clock, so a key never outlives the data or
// the window it was built from.
type ReportKey struct {
	Granularity domain.Granularity
	Generation  int64
	Minute      int64
}

func NewReportKey(g domain.Granularity, generation int64, now time.Time) ReportKey {
	return ReportKey{Granularity: g, Generation: generation, Minute: now.Unix() / 60}
}

// Digest hashes the generation and minute. The granularity stays readable in
// the stored key.
func (k ReportKey) Digest() string {
	raw := "gen:" + strconv.FormatInt(k.Generation, 10) + "|min:" + strconv.FormatInt(k.Minute, 10)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (k ReportKey) String() string {
	return string(k.Granularity) + ":" + k.Digest()
}

type ReportCache interface {
	Get(ctx context.Context, key ReportKey) (*domain.Report, bool, error)
	Set(ctx context.Context, key ReportKey, value *domain.Report, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ ReportKey) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ ReportKey, _ *domain.Report, _ time.Duration) error {
	return nil
}
