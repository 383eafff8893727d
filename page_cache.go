package dictcore

import (
	cmap "github.com/zbh255/gocode/container/map"
)

// cachePage is one cached page's worth of raw bytes, tagged by page id.
type cachePage struct {
	data []byte
	pgId pageId
}

// pageCache is a read-through cache in front of the arena's page file: both
// mmapArena and freelist write synchronously (mmap writes land immediately;
// freelist writes go through WriteAt before being cached), so there is no
// write-buffering tier here, only a cache of pages already known-clean on
// disk. Hit counting is kept in a zbh255/gocode BTreeMap the way the teacher
// tracked per-page use counts, even though this cache never needs range
// queries over it — it is the natural ordered-map primitive already pulled
// in by the rest of the arena.
type pageCache struct {
	clean    map[uint64]cachePage
	useCount *cmap.BTreeMap[uint64, uint64]
}

func newPageCache(maxPage int) *pageCache {
	return &pageCache{
		clean:    make(map[uint64]cachePage, maxPage),
		useCount: cmap.NewBtreeMap[uint64, uint64](64),
	}
}

func (c *pageCache) readPage(pgId uint64) (cachePage, bool) {
	if p, ok := c.clean[pgId]; ok {
		c.bump(pgId)
		return p, true
	}
	return cachePage{}, false
}

func (c *pageCache) bump(pgId uint64) {
	n, _ := c.useCount.LoadOk(pgId)
	c.useCount.StoreOk(pgId, n+1)
}

func (c *pageCache) setReadValue(p cachePage) {
	c.clean[p.pgId.ToUint64()] = p
}
