package dictcore

import (
	"fmt"
	"hash/crc32"
	"os"
	"unsafe"

	"github.com/kestrelkv/dictcore/internal/sys"
)

var metadataMagic = [4]byte{'d', 'c', 'o', 'r'}

type metaHeader struct {
	header       [4]byte
	sum          uint32
	sysPageSize  uint32
	rootNodePgId pageId
	datLen       uint16
}

type mmapPsMetadata struct {
	header *metaHeader
	data   []byte
}

func (m *mmapPsMetadata) minSize() uint32 {
	return uint32(unsafe.Sizeof(metaHeader{}))
}

// mmapArena is the mmap-backed implementation of the Arena interface (see
// external.go), adapted from the teacher's mmapPageStorage: a single memory
// mapped page file plus a binary-heap-on-disk freelist for page allocation.
// Pages themselves need no read cache, since mmap already puts them at a
// direct memory address; only the freelist's own plain file (accessed via
// ReadAt/WriteAt) goes through a pageCache. A ref handed out by Alloc is a
// pageId; values that would not fit in one page are rejected rather than
// chained across an Overflow page, a simplification noted in DESIGN.md.
type mmapArena struct {
	mapFile     *os.File
	path        string
	dat         []byte
	sysPageSize uint32
	freelist    *freelist
	cipher      Cipher
}

func newMMapArena(path string, cipher Cipher) *mmapArena {
	return &mmapArena{path: path, cipher: cipher}
}

func (m *mmapArena) init() (err error) {
	m.mapFile, err = os.OpenFile(m.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	m.sysPageSize = uint32(sys.GetSysPageSize())
	stat, err := m.mapFile.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		return m.initFile()
	}
	m.dat, err = sys.MMap(m.mapFile, uint64(stat.Size()))
	if err != nil {
		return err
	}
	metadata := m.getMetadata(false)
	m.sysPageSize = metadata.header.sysPageSize
	m.freelist = newFreelist(m.path+".freelist", m.sysPageSize)
	return m.freelist.init()
}

func (m *mmapArena) initFile() (err error) {
	defaultSize := uint64(m.sysPageSize) * defaultPageCount
	if err = m.mapFile.Truncate(int64(defaultSize)); err != nil {
		return err
	}
	m.dat, err = sys.MMap(m.mapFile, defaultSize)
	if err != nil {
		return err
	}
	metadata := m.getMetadata(true)
	metadata.header.header = metadataMagic
	metadata.header.sysPageSize = m.sysPageSize

	m.freelist = newFreelist(m.path+".freelist", m.sysPageSize)
	if err = m.freelist.init(); err != nil {
		return err
	}
	metadata.header.rootNodePgId.FromUint64(2)
	m.stampMetadataSum()
	for i := uint64(3); i < defaultPageCount; i++ {
		if err = m.freelist.pushOne(createPageIdFromUint64(i)); err != nil {
			return err
		}
	}
	return nil
}

func (m *mmapArena) getMetadata(isInit bool) *mmapPsMetadata {
	ptr := unsafe.Pointer(&m.dat[0])
	metadata := &mmapPsMetadata{header: (*metaHeader)(ptr)}
	byteLen := int(m.sysPageSize)
	if !isInit {
		byteLen = int(metadata.header.sysPageSize)
	}
	metadata.data = unsafe.Slice((*byte)(unsafe.Add(ptr, metadata.minSize())), byteLen)
	return metadata
}

func (m *mmapArena) stampMetadataSum() {
	metadata := m.getMetadata(false)
	metadata.header.sum = crc32.ChecksumIEEE(m.dat[8:metadata.header.sysPageSize])
}

func (m *mmapArena) grow() error {
	stat, err := m.mapFile.Stat()
	if err != nil {
		return err
	}
	fileSize := stat.Size()
	newFileSize := fileSize * 2
	if fileSize > 1024*1024*1024 {
		newFileSize = fileSize + 1024*1024*1024
	}
	if err = m.mapFile.Truncate(newFileSize); err != nil {
		return err
	}
	m.dat, err = sys.Remap(m.mapFile, uint64(newFileSize), m.dat)
	if err != nil {
		return err
	}
	start := fileSize / int64(m.sysPageSize)
	end := newFileSize / int64(m.sysPageSize)
	for i := start; i < end; i++ {
		if err = m.freelist.pushOne(createPageIdFromUint64(uint64(i))); err != nil {
			return err
		}
	}
	return nil
}

func (m *mmapArena) close() error {
	if m.freelist != nil {
		if err := m.freelist.close(); err != nil {
			return err
		}
	}
	if err := m.mapFile.Close(); err != nil {
		return err
	}
	m.mapFile = nil
	m.dat = nil
	return nil
}

func (m *mmapArena) pageDataSize() int {
	return int(m.sysPageSize) - int((&pageDesc{}).minSize())
}

func (m *mmapArena) allocPage(n int) ([]pageId, error) {
	res, err := m.freelist.pop(n)
	if err != nil {
		return nil, err
	}
	if len(res) < n {
		if err = m.grow(); err != nil {
			return nil, err
		}
		more, err := m.freelist.pop(n - len(res))
		if err != nil {
			return nil, err
		}
		res = append(res, more...)
	}
	for _, pgId := range res {
		header := (*pageHeader)(unsafe.Pointer(&m.dat[pgId.ToUint64()*uint64(m.sysPageSize)]))
		header.Header = pageHeaderDat
		header.PgId = pgId
	}
	return res, nil
}

func (m *mmapArena) freePage(ids []pageId) error {
	for _, id := range ids {
		if id.ToUint64() < 2 {
			return fmt.Errorf("dictcore: cannot free reserved page %d", id.ToUint64())
		}
	}
	return m.freelist.push(ids)
}

func (m *mmapArena) readPage(pgId pageId) (*pageDesc, error) {
	if pgId.ToUint64() < 2 {
		return nil, fmt.Errorf("dictcore: page %d is not a data page", pgId.ToUint64())
	}
	pd := new(pageDesc)
	off := pgId.ToUint64() * uint64(m.sysPageSize)
	pd.Header = *(*pageHeader)(unsafe.Pointer(&m.dat[off]))
	pd.Data = m.dat[off+uint64(pd.minSize()) : off+uint64(m.sysPageSize)]
	return pd, nil
}

func (m *mmapArena) writePageData(pgId pageId, data []byte) error {
	if len(data) > m.pageDataSize() {
		return fmt.Errorf("dictcore: value of %d bytes does not fit one page (max %d)", len(data), m.pageDataSize())
	}
	plain := data
	if m.cipher != nil {
		enc, err := m.cipher.Encrypt(pad(data, m.pageDataSize()))
		if err != nil {
			return err
		}
		plain = enc
	}
	off := pgId.ToUint64()*uint64(m.sysPageSize) + uint64((&pageDesc{}).minSize())
	end := off + uint64(m.pageDataSize())
	n := copy(m.dat[off:end], plain)
	clear(m.dat[off+uint64(n) : end])
	return nil
}

func (m *mmapArena) readPageData(pgId pageId) ([]byte, error) {
	pd, err := m.readPage(pgId)
	if err != nil {
		return nil, err
	}
	if m.cipher == nil {
		return pd.Data, nil
	}
	buf := make([]byte, len(pd.Data))
	copy(buf, pd.Data)
	if err = m.cipher.Decrypt(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func pad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
