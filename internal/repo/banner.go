package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/uptrace/bun"

	"github.com/endfieldpass/backend/internal/app/appconfig"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/repo/selector"
)

// BannerCatalog serves limited-banner metadata, read-only from the stats
// engine's point of view. Writes only happen through seeding (memory driver)
// or out-of-band DB inserts (postgres driver).
type BannerCatalog interface {
	List(ctx context.Context) ([]*model.Banner, error)
	Put(ctx context.Context, banner *model.Banner) error
}

func NewBannerCatalog(conf *appconfig.Config, db *bun.DB) BannerCatalog {
	if conf.StoreDriver == appconfig.StoreDriverPostgres {
		return NewPgBannerCatalog(db)
	}
	return NewMemoryBannerCatalog()
}

type MemoryBannerCatalog struct {
	mu      sync.RWMutex
	nextID  int
	banners []*model.Banner
}

func NewMemoryBannerCatalog() *MemoryBannerCatalog {
	return &MemoryBannerCatalog{nextID: 1}
}

func (c *MemoryBannerCatalog) List(ctx context.Context) ([]*model.Banner, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	banners := make([]*model.Banner, len(c.banners))
	for i, banner := range c.banners {
		clone := *banner
		banners[i] = &clone
	}
	return banners, nil
}

func (c *MemoryBannerCatalog) Put(ctx context.Context, banner *model.Banner) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := *banner
	if clone.BannerID == 0 {
		clone.BannerID = c.nextID
		c.nextID++
	}
	for i, existing := range c.banners {
		if existing.BannerID == clone.BannerID || existing.PoolID == clone.PoolID {
			clone.BannerID = existing.BannerID
			c.banners[i] = &clone
			banner.BannerID = clone.BannerID
			return nil
		}
	}
	c.banners = append(c.banners, &clone)
	sort.SliceStable(c.banners, func(i, j int) bool {
		return c.banners[i].BannerID < c.banners[j].BannerID
	})
	banner.BannerID = clone.BannerID
	return nil
}

type PgBannerCatalog struct {
	db  *bun.DB
	sel selector.S[model.Banner]
}

func NewPgBannerCatalog(db *bun.DB) *PgBannerCatalog {
	return &PgBannerCatalog{
		db:  db,
		sel: selector.New[model.Banner](db),
	}
}

func (c *PgBannerCatalog) List(ctx context.Context) ([]*model.Banner, error) {
	return c.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("banner_id ASC")
	})
}

func (c *PgBannerCatalog) Put(ctx context.Context, banner *model.Banner) error {
	_, err := c.db.NewInsert().
		Model(banner).
		On("CONFLICT (pool_id) DO UPDATE").
		Set("version_major = EXCLUDED.version_major").
		Set("version_minor = EXCLUDED.version_minor").
		Set("number = EXCLUDED.number").
		Set("top_character_code = EXCLUDED.top_character_code").
		Set("six_star_character_codes = EXCLUDED.six_star_character_codes").
		Set("active = EXCLUDED.active").
		Set("start_at = EXCLUDED.start_at").
		Set("end_at = EXCLUDED.end_at").
		Exec(ctx)
	return err
}
