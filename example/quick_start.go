// Command quick_start is a runnable tour of dictcore's public API: an
// in-memory dictionary keyed by string, filled, summed, read back by key,
// sorted by value and erased from.
package main

import (
	"fmt"
	"log/slog"

	"github.com/kestrelkv/dictcore"
)

// fakeParent is the minimal Parent a standalone demo needs: no real object
// store behind it, so backlinks are accepted but never actually tracked.
type fakeParent struct {
	live     bool
	nextKey  dictcore.ObjKey
	opposite dictcore.TableKey
}

func (p *fakeParent) Validate(dictcore.ObjLink) error { return nil }
func (p *fakeParent) IsValid(dictcore.TableKey, dictcore.ObjKey) bool { return true }
func (p *fakeParent) OppositeTable(dictcore.ColKey) dictcore.TableKey { return p.opposite }
func (p *fakeParent) ReplaceBacklink(dictcore.ColKey, dictcore.ObjLink, dictcore.ObjLink, *dictcore.CascadeState) (bool, error) {
	return false, nil
}
func (p *fakeParent) RemoveBacklink(dictcore.ColKey, dictcore.ObjLink, *dictcore.CascadeState) (bool, error) {
	return false, nil
}
func (p *fakeParent) RemoveRecursive(*dictcore.CascadeState) error { return nil }
func (p *fakeParent) DictionaryInsert(dictcore.ColKey, int, dictcore.Mixed, dictcore.Mixed) {}
func (p *fakeParent) DictionarySet(dictcore.ColKey, int, dictcore.Mixed, dictcore.Mixed)    {}
func (p *fakeParent) DictionaryErase(dictcore.ColKey, int, dictcore.Mixed)                  {}
func (p *fakeParent) SetDictionaryRoot(dictcore.ColKey, bool) error { return nil }
func (p *fakeParent) IsAttached() bool                              { return p.live }
func (p *fakeParent) CreateObject(dictcore.TableKey) (dictcore.ObjKey, error) {
	p.nextKey++
	return p.nextKey, nil
}
func (p *fakeParent) CreateLinkedObject(dictcore.TableKey) (dictcore.ObjKey, error) {
	return p.CreateObject(p.opposite)
}

func main() {
	logger := slog.Default()
	cfg := dictcore.Config{Logger: logger}
	parent := &fakeParent{live: true, opposite: 7}

	scores, err := dictcore.NewDictionary(1, dictcore.KeyTypeString, dictcore.ValueTypeInt, false, parent, cfg)
	if err != nil {
		panic(err)
	}

	names := []string{"ada", "grace", "linus", "margaret"}
	for i, name := range names {
		if _, _, err := scores.Insert(dictcore.MixedString(name), dictcore.MixedInt(int64(10*(i+1)))); err != nil {
			panic(err)
		}
	}

	total, count, err := scores.Sum()
	if err != nil {
		panic(err)
	}
	sum, _ := total.AsInt()
	fmt.Printf("inserted %d entries, sum=%d\n", count, sum)

	if v, err := scores.Get(dictcore.MixedString("grace")); err == nil {
		n, _ := v.AsInt()
		fmt.Printf("grace -> %d\n", n)
	}

	idx := make([]int, scores.Size())
	for i := range idx {
		idx[i] = i
	}
	if err := scores.Sort(idx, false); err != nil {
		panic(err)
	}
	for _, i := range idx {
		k, v, err := scores.GetPair(i)
		if err != nil {
			panic(err)
		}
		key, _ := k.AsString()
		val, _ := v.AsInt()
		fmt.Printf("%s: %d\n", key, val)
	}

	if err := scores.Erase(dictcore.MixedString("linus")); err != nil {
		panic(err)
	}
	fmt.Printf("after erase, size=%d\n", scores.Size())
}
