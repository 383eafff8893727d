package dictcore

import (
	"crypto/aes"
	"crypto/cipher"
	"sync"
)

// Cipher 加密不允许原地更新, 解密必须原地更新
type Cipher interface {
	Encrypt(plaintext []byte) (ciphertext []byte, err error)
	free(ciphertext []byte)
	Decrypt(ciphertext []byte) error
}

// aesCipher runs AES in CTR mode so a full page can be encrypted in one
// call; block.Encrypt/block.Decrypt only ever handle exactly aes.BlockSize
// bytes, which would panic against any real page. The counter starts at
// zero for every call, a known limitation for this storage layer: pages
// encrypted under the same key reuse the same keystream prefix (see
// DESIGN.md).
type aesCipher struct {
	pool  sync.Pool
	block cipher.Block
}

func NewAseCipher(key []byte, pageSize int) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &aesCipher{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, pageSize)
			},
		},
		block: block,
	}, nil
}

func (a *aesCipher) stream() cipher.Stream {
	var iv [aes.BlockSize]byte
	return cipher.NewCTR(a.block, iv[:])
}

func (a *aesCipher) Encrypt(plaintext []byte) (ciphertext []byte, err error) {
	buf := a.pool.Get().([]byte)
	if cap(buf) < len(plaintext) {
		buf = make([]byte, len(plaintext))
	}
	ciphertext = buf[:len(plaintext)]
	a.stream().XORKeyStream(ciphertext, plaintext)
	return ciphertext, nil
}

func (a *aesCipher) free(ciphertext []byte) {
	a.pool.Put(ciphertext)
}

func (a *aesCipher) Decrypt(ciphertext []byte) error {
	a.stream().XORKeyStream(ciphertext, ciphertext)
	return nil
}
