package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.ERROR, "cache")
}

func TestPutGet(tst *testing.T) {
	c, err := Open(filepath.Join(tst.TempDir(), "tables.db"))
	if err != nil {
		tst.Fatal(err)
	}
	defer c.Close()

	key := Key("additive_2", []string{"x", "x*(1 + y)"}, []float64{0.25, 0.25}, "heritability", 0.1)
	e := &Entry{X: 0.5, Y: 0.25, Values: []float64{0.5, 0.625, 0.78125}}
	if err := c.Put(key, e); err != nil {
		tst.Fatal(err)
	}

	got, err := c.Get(key)
	if err != nil {
		tst.Fatal(err)
	}
	if got == nil {
		tst.Fatal("stored entry not found")
	}
	if got.X != e.X || got.Y != e.Y || len(got.Values) != len(e.Values) {
		tst.Errorf("got %+v, want %+v", got, e)
	}
	for i := range e.Values {
		if got.Values[i] != e.Values[i] {
			tst.Errorf("value %d is %v, want %v", i, got.Values[i], e.Values[i])
		}
	}
}

func TestMiss(tst *testing.T) {
	c, err := Open(filepath.Join(tst.TempDir(), "tables.db"))
	if err != nil {
		tst.Fatal(err)
	}
	defer c.Close()

	got, err := c.Get(Key("additive_2", nil, nil, "prevalence", 0.5))
	if err != nil {
		tst.Fatal(err)
	}
	if got != nil {
		tst.Errorf("unexpected hit: %+v", got)
	}
}

func TestNilDatabase(tst *testing.T) {
	c := New(nil)
	key := Key("m", nil, nil, "heritability", 0)
	if err := c.Put(key, &Entry{X: 1}); err != nil {
		tst.Errorf("nil-database put: %v", err)
	}
	got, err := c.Get(key)
	if err != nil || got != nil {
		tst.Errorf("nil-database get: %v, %v", got, err)
	}
	if err := c.Close(); err != nil {
		tst.Errorf("nil-database close: %v", err)
	}
}

func TestKeyDiscriminates(tst *testing.T) {
	base := Key("m", []string{"x"}, []float64{0.1}, "heritability", 0.1)
	variants := [][]byte{
		Key("other", []string{"x"}, []float64{0.1}, "heritability", 0.1),
		Key("m", []string{"y"}, []float64{0.1}, "heritability", 0.1),
		Key("m", []string{"x"}, []float64{0.2}, "heritability", 0.1),
		Key("m", []string{"x"}, []float64{0.1}, "prevalence", 0.1),
		Key("m", []string{"x"}, []float64{0.1}, "heritability", 0.2),
	}
	for i, v := range variants {
		if bytes.Equal(base, v) {
			tst.Errorf("variant %d collides with the base key", i)
		}
	}
	if !bytes.Equal(base, Key("m", []string{"x"}, []float64{0.1}, "heritability", 0.1)) {
		tst.Error("identical requests produce different keys")
	}
}
