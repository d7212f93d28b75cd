package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("key1"), []byte("value1")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}

		val, err := db.Get([]byte("key1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("value1")) {
			t.Errorf("Get() = %q, want %q", val, "value1")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := db.Get([]byte("nonexistent"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() for missing key = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		if err := db.Put([]byte("exists"), []byte("yes")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}

		ok, err := db.Has([]byte("exists"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if !ok {
			t.Error("Has() = false for existing key")
		}

		ok, err = db.Has([]byte("missing"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if ok {
			t.Error("Has() = true for missing key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := db.Put([]byte("doomed"), []byte("x")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		if err := db.Delete([]byte("doomed")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := db.Get([]byte("doomed")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Delete = %v, want ErrNotFound", err)
		}
	})

	t.Run("ForEachSortedByKey", func(t *testing.T) {
		pairs := map[string]string{
			"p/c": "3",
			"p/a": "1",
			"p/b": "2",
			"q/z": "other",
		}
		for k, v := range pairs {
			if err := db.Put([]byte(k), []byte(v)); err != nil {
				t.Fatalf("Put(%q) error: %v", k, err)
			}
		}

		var keys []string
		err := db.ForEach([]byte("p/"), func(key, value []byte) error {
			keys = append(keys, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}

		want := []string{"p/a", "p/b", "p/c"}
		if len(keys) != len(want) {
			t.Fatalf("ForEach() visited %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("ForEach() order[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})

	t.Run("ForEachEarlyStop", func(t *testing.T) {
		stop := errors.New("stop")
		count := 0
		err := db.ForEach([]byte("p/"), func(key, value []byte) error {
			count++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("ForEach() = %v, want stop sentinel", err)
		}
		if count != 1 {
			t.Errorf("callback ran %d times after stop, want 1", count)
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestMemoryDB_GetReturnsCopy(t *testing.T) {
	db := NewMemory()
	defer db.Close()

	if err := db.Put([]byte("k"), []byte("abc")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	val, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	val[0] = 'z'

	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(again, []byte("abc")) {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}
