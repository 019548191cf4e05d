package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	m := New(true, time.Minute)
	m.Set("k", "v", time.Minute)

	v, ok := m.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestGetExpiredEvictsLazily(t *testing.T) {
	m := New(true, time.Minute)
	m.Set("k", "v", time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := m.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, m.Len(), "expired entry should be removed on read")
}

func TestRemoveAndClear(t *testing.T) {
	m := New(true, time.Minute)
	m.Set("a", 1, time.Minute)
	m.Set("b", 2, time.Minute)

	m.Remove("a")
	_, ok := m.Get("a")
	require.False(t, ok)

	m.Clear()
	require.Equal(t, 0, m.Len())
}

func TestRemovePrefix(t *testing.T) {
	m := New(true, time.Minute)
	m.Set(KeyEquipmentPage(1, 20), "p1", time.Minute)
	m.Set(KeyEquipmentPage(2, 20), "p2", time.Minute)
	m.Set(KeyCategoryList(), "cats", time.Minute)

	m.RemovePrefix(KeyEquipmentPrefix())

	_, ok := m.Get(KeyEquipmentPage(1, 20))
	require.False(t, ok)
	_, ok = m.Get(KeyCategoryList())
	require.True(t, ok, "unrelated keys must survive a prefix clear")
}

func TestDisabledManagerStoresNothing(t *testing.T) {
	m := New(false, time.Minute)
	m.Set("k", "v", time.Minute)
	_, ok := m.Get("k")
	require.False(t, ok)
}

func TestSweeperRemovesExpired(t *testing.T) {
	m := New(true, 10*time.Millisecond)
	m.Start()
	defer m.Stop()

	m.Set("short", "v", time.Nanosecond)
	m.Set("long", "v", time.Minute)

	require.Eventually(t, func() bool { return m.Len() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestTranslationKeyIsExact(t *testing.T) {
	// No trimming or case folding: " Save" and "Save" are different keys.
	require.NotEqual(t, KeyTranslation("Save", "pt"), KeyTranslation(" Save", "pt"))
	require.NotEqual(t, KeyTranslation("save", "pt"), KeyTranslation("Save", "pt"))
}
