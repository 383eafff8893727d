package dictcore

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/kestrelkv/dictcore/internal/sys"
)

var defaultFreelistHeapByteSize = unsafe.Sizeof(pageId{}) * 4096

// pageIdPos locates one pageId slot of the on-disk binary heap: which
// freelist page it lives on, and its index within that page's list.
type pageIdPos struct {
	pg        freelistPage
	pgId      uint64
	globalIdx uint64
	innerIdx  uint64
}

func (p *pageIdPos) get() pageId {
	return p.pg.pgIdList[p.innerIdx]
}

func (p *pageIdPos) setPageId(v pageId) {
	p.pg.pgIdList[p.innerIdx] = v
}

type freelistPage struct {
	rawBuf   []byte
	pgIdList []pageId
}

func (p *freelistPage) parse(buf []byte) {
	p.rawBuf = buf
	p.pgIdList = make([]pageId, 0, 256)
	idx := 0
	for idx+pgIdMemSize <= len(buf) {
		p.pgIdList = append(p.pgIdList, pageId(buf[idx:idx+pgIdMemSize]))
		idx += pgIdMemSize
	}
}

func (p *freelistPage) writePgIdListToRawBuf() {
	if len(p.pgIdList)*pgIdMemSize > len(p.rawBuf) {
		panic(fmt.Errorf("pageIdList byte size overflow of pageSize(%d)", len(p.rawBuf)))
	}
	for i := 0; i < len(p.pgIdList); i++ {
		copy(p.rawBuf[i*pgIdMemSize:(i+1)*pgIdMemSize], p.pgIdList[i][:])
	}
}

// freelist is a binary min-heap of free page ids, stored across a chain of
// fixed-size pages on its own file. popPageId/pushPageId implement the
// classic sift-down/sift-up heap operations over that paged storage.
type freelist struct {
	file        *os.File
	path        string
	sysPageSize uint32
	cache       *pageCache
}

func newFreelist(path string, sysPageSize uint32) *freelist {
	return &freelist{
		path:        path,
		sysPageSize: sysPageSize,
		cache:       newPageCache(64),
	}
}

func (f *freelist) init() (err error) {
	f.file, err = sys.OpenFile(f.path)
	if err != nil {
		return
	}
	stat, err := f.file.Stat()
	if err != nil {
		return
	}
	if stat.Size() == 0 {
		return f.initFile()
	}
	return nil
}

func (f *freelist) close() (err error) {
	err = f.file.Close()
	f.file = nil
	return
}

func (f *freelist) initFile() error {
	return f.file.Truncate(int64(defaultFreelistHeapByteSize))
}

func (f *freelist) growFile() error {
	stat, err := f.file.Stat()
	if err != nil {
		return err
	}
	fileSize := stat.Size()
	if fileSize > 1024*1024 {
		fileSize += 1024 * 1024
	} else {
		fileSize *= 2
	}
	return f.file.Truncate(fileSize)
}

func (f *freelist) readPage(pgId uint64) (p freelistPage, err error) {
	if cp, found := f.cache.readPage(pgId); found {
		p.parse(cp.data)
		return
	}
	buf := make([]byte, f.sysPageSize)
	n, err := f.file.ReadAt(buf, int64(pgId)*int64(f.sysPageSize))
	if err != nil {
		return
	}
	if n != len(buf) {
		err = errors.New("dictcore: freelist short read")
		return
	}
	p.parse(buf)
	f.cache.setReadValue(cachePage{data: p.rawBuf, pgId: createPageIdFromUint64(pgId)})
	return
}

func (f *freelist) writePage(pgId uint64, page freelistPage) error {
	page.writePgIdListToRawBuf()
	n, err := f.file.WriteAt(page.rawBuf, int64(pgId)*int64(f.sysPageSize))
	if err != nil {
		return err
	}
	if n != len(page.rawBuf) {
		return errors.New("dictcore: freelist short write")
	}
	f.cache.setReadValue(cachePage{data: page.rawBuf, pgId: createPageIdFromUint64(pgId)})
	return nil
}

func (f *freelist) readPageWithPgIdIdx(idx uint64) (pos pageIdPos, err error) {
	pos.globalIdx = idx
	// the first slot of page 0 stores the heap length, not a real entry.
	idx++
	pageIdCount := uint64(f.sysPageSize) / uint64(pgIdMemSize)
	pos.pgId = idx / pageIdCount
	pos.innerIdx = idx % pageIdCount
	pos.pg, err = f.readPage(pos.pgId)
	return
}

func (f *freelist) isFull(idx uint64) (bool, error) {
	// mirrors readPageWithPgIdIdx's own +1 skip of the reserved heap-length
	// slot, so the page this checks for is the same page that idx actually
	// resolves to.
	idx++
	pageIdCount := uint64(f.sysPageSize) / uint64(pgIdMemSize)
	requirePage := idx / pageIdCount
	stat, err := f.file.Stat()
	if err != nil {
		return false, err
	}
	return int64((requirePage+1)*uint64(f.sysPageSize)) > stat.Size(), nil
}

func (f *freelist) popOne() (pageId, bool, error) {
	return f.popPageId()
}

func (f *freelist) pop(n int) ([]pageId, error) {
	res := make([]pageId, 0, n)
	for i := 0; i < n; i++ {
		p, found, err := f.popPageId()
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		res = append(res, p)
	}
	return res, nil
}

func (f *freelist) popPageId() (p pageId, found bool, err error) {
	firstPage, err := f.readPage(0)
	if err != nil {
		return
	}
	currentLength := firstPage.pgIdList[0].ToUint64()
	if currentLength == 0 {
		return
	}
	if currentLength == 1 {
		p = firstPage.pgIdList[1]
		found = true
		firstPage.pgIdList[0].FromUint64(0)
		err = f.writePage(0, firstPage)
		return
	}
	maxIdx := currentLength - 1
	p = firstPage.pgIdList[1]
	found = true
	pos, err := f.readPageWithPgIdIdx(maxIdx)
	if err != nil {
		return
	}
	firstPage.pgIdList[1] = pos.get()
	firstPage.pgIdList[0].FromUint64(maxIdx)
	if err = f.writePage(0, firstPage); err != nil {
		return
	}
	maxIdx--
	var idx uint64
	for idx < maxIdx {
		pos, err = f.readPageWithPgIdIdx(idx)
		if err != nil {
			return
		}
		v := pos.get()
		leftIdx, rightIdx := idx*2+1, idx*2+2
		switch {
		case leftIdx <= maxIdx && rightIdx <= maxIdx:
			lPos, lErr := f.readPageWithPgIdIdx(leftIdx)
			if lErr != nil {
				err = lErr
				return
			}
			rPos, rErr := f.readPageWithPgIdIdx(rightIdx)
			if rErr != nil {
				err = rErr
				return
			}
			// a child on pos's own page must share pos's parsed list (see
			// pushPageId), or writing one would undo the other's swap.
			if lPos.pgId == pos.pgId {
				lPos.pg = pos.pg
			}
			if rPos.pgId == pos.pgId {
				rPos.pg = pos.pg
			}
			leftVal, rightVal := lPos.get(), rPos.get()
			if cmp.Less(leftVal.ToUint64(), rightVal.ToUint64()) {
				if cmp.Less(leftVal.ToUint64(), v.ToUint64()) {
					lPos.setPageId(v)
					pos.setPageId(leftVal)
				}
				if err = f.writePage(pos.pgId, pos.pg); err != nil {
					return
				}
				if err = f.writePage(lPos.pgId, lPos.pg); err != nil {
					return
				}
				idx = leftIdx
			} else {
				if cmp.Less(rightVal.ToUint64(), v.ToUint64()) {
					rPos.setPageId(v)
					pos.setPageId(rightVal)
				}
				if err = f.writePage(pos.pgId, pos.pg); err != nil {
					return
				}
				if err = f.writePage(rPos.pgId, rPos.pg); err != nil {
					return
				}
				idx = rightIdx
			}
		case leftIdx <= maxIdx:
			lPos, lErr := f.readPageWithPgIdIdx(leftIdx)
			if lErr != nil {
				err = lErr
				return
			}
			if lPos.pgId == pos.pgId {
				lPos.pg = pos.pg
			}
			leftVal := lPos.get()
			if cmp.Less(leftVal.ToUint64(), v.ToUint64()) {
				lPos.setPageId(v)
				pos.setPageId(leftVal)
			}
			if err = f.writePage(pos.pgId, pos.pg); err != nil {
				return
			}
			if err = f.writePage(lPos.pgId, lPos.pg); err != nil {
				return
			}
			idx = leftIdx
		default:
			idx = maxIdx
		}
	}
	return
}

func (f *freelist) pushOne(id pageId) error {
	return f.pushPageId(id)
}

func (f *freelist) push(ids []pageId) error {
	for _, id := range ids {
		if err := f.pushPageId(id); err != nil {
			return err
		}
	}
	return nil
}

func (f *freelist) pushPageId(id pageId) error {
	firstPage, err := f.readPage(0)
	if err != nil {
		return err
	}
	currentLength := firstPage.pgIdList[0].ToUint64()
	firstPage.pgIdList[0].FromUint64(currentLength + 1)
	full, err := f.isFull(currentLength)
	if err != nil {
		return err
	}
	if full {
		if err = f.growFile(); err != nil {
			return err
		}
	}
	if err = f.writePage(0, firstPage); err != nil {
		return err
	}
	// The new entry's heap slot is at index currentLength, which is page 0's
	// reserved slot 1 only for the very first push; every later push lands
	// on whatever page readPageWithPgIdIdx maps that index to.
	newPos, err := f.readPageWithPgIdIdx(currentLength)
	if err != nil {
		return err
	}
	newPos.setPageId(id)
	if err = f.writePage(newPos.pgId, newPos.pg); err != nil {
		return err
	}
	for currentLength != 0 {
		parentIdx := (currentLength - 1) / 2
		parentPos, err := f.readPageWithPgIdIdx(parentIdx)
		if err != nil {
			return err
		}
		currentPos, err := f.readPageWithPgIdIdx(currentLength)
		if err != nil {
			return err
		}
		// Two slots on the same freelist page must share one parsed list, or
		// the second writePage would write back the first slot's old value.
		if currentPos.pgId == parentPos.pgId {
			currentPos.pg = parentPos.pg
		}
		parentV, currentV := parentPos.get(), currentPos.get()
		if cmp.Less(currentV.ToUint64(), parentV.ToUint64()) {
			parentPos.setPageId(currentV)
			currentPos.setPageId(parentV)
		}
		if err = f.writePage(parentPos.pgId, parentPos.pg); err != nil {
			return err
		}
		if err = f.writePage(currentPos.pgId, currentPos.pg); err != nil {
			return err
		}
		currentLength = parentIdx
	}
	return nil
}
