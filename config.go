package dictcore

import "log/slog"

// Config governs how a Dictionary Handle's Cluster Tree is stored and
// observed. The zero value is usable: it builds an in-memory arena, a
// default tree order, and the default slog logger.
type Config struct {
	// RootDir and Name select the on-disk page file when Arena is nil and
	// Persistent is true; ignored once Arena is set explicitly.
	RootDir    string
	Name       string
	Persistent bool

	// Arena overrides the storage backend entirely; when nil one is built
	// from RootDir/Name/Persistent.
	Arena Arena

	// TreeOrder bounds how many entries a Cluster (leaf) or children an
	// internal routing node may hold before splitting.
	TreeOrder int

	// CipherFactory, when set, is used to build a page-level Cipher for a
	// file-backed arena. Ignored for an in-memory arena.
	CipherFactory func() (Cipher, error)

	Logger *slog.Logger
}

const defaultTreeOrder = 32

func (c Config) resolveArena() (Arena, error) {
	if c.Arena != nil {
		return c.Arena, nil
	}
	if !c.Persistent {
		return newMemArena(), nil
	}
	var cipher Cipher
	if c.CipherFactory != nil {
		var err error
		cipher, err = c.CipherFactory()
		if err != nil {
			return nil, err
		}
	}
	return NewFileArena(c.RootDir+"/"+c.Name+".dictcore", cipher)
}

func (c Config) resolveOrder() int {
	if c.TreeOrder <= 0 {
		return defaultTreeOrder
	}
	return c.TreeOrder
}

func (c Config) resolveLogger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
