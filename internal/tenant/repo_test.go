package tenant

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type note struct {
	ID       string
	TenantID string
	Body     string
}

func (n *note) Owner() string { return n.TenantID }

func (n *note) Clone() *note {
	out := *n
	return &out
}

func TestGetScopesByTenant(t *testing.T) {
	repo := NewRepo[*note]()
	repo.Insert("n1", &note{ID: "n1", TenantID: "t1", Body: "alpha"})

	got, err := repo.Get("t1", "n1")
	require.NoError(t, err)
	require.Equal(t, "alpha", got.Body)

	// Foreign tenant and nonexistent id fail with the identical error.
	_, foreignErr := repo.Get("t2", "n1")
	_, missingErr := repo.Get("t2", "nope")
	require.ErrorIs(t, foreignErr, ErrNotFound)
	require.ErrorIs(t, missingErr, ErrNotFound)
	require.Equal(t, foreignErr, missingErr)
}

func TestListPreservesInsertionOrderPerTenant(t *testing.T) {
	repo := NewRepo[*note]()
	repo.Insert("a", &note{ID: "a", TenantID: "t1"})
	repo.Insert("b", &note{ID: "b", TenantID: "t2"})
	repo.Insert("c", &note{ID: "c", TenantID: "t1"})

	t1 := repo.List("t1")
	require.Len(t, t1, 2)
	require.Equal(t, "a", t1[0].ID)
	require.Equal(t, "c", t1[1].ID)

	require.Empty(t, repo.List("t3"))

	// Repeated reads without mutation return identical results.
	again := repo.List("t1")
	require.Equal(t, t1, again)
}

func TestUpdateRevalidatesOwnership(t *testing.T) {
	repo := NewRepo[*note]()
	repo.Insert("n1", &note{ID: "n1", TenantID: "t1", Body: "old"})

	_, err := repo.Update("t2", "n1", func(n *note) (*note, error) {
		n.Body = "hijacked"
		return n, nil
	})
	require.ErrorIs(t, err, ErrNotFound)

	got, err := repo.Get("t1", "n1")
	require.NoError(t, err)
	require.Equal(t, "old", got.Body)
}

func TestUpdateErrorLeavesRecordUntouched(t *testing.T) {
	repo := NewRepo[*note]()
	repo.Insert("n1", &note{ID: "n1", TenantID: "t1", Body: "old"})

	boom := errors.New("boom")
	_, err := repo.Update("t1", "n1", func(n *note) (*note, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Get("t1", "n1")
	require.NoError(t, err)
	require.Equal(t, "old", got.Body)
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	repo := NewRepo[*note]()
	original := &note{ID: "n1", TenantID: "t1", Body: "alpha"}
	repo.Insert("n1", original)

	// Neither the inserted value nor a returned one aliases the stored record.
	original.Body = "mutated after insert"
	got, err := repo.Get("t1", "n1")
	require.NoError(t, err)
	require.Equal(t, "alpha", got.Body)

	got.Body = "mutated after get"
	again, err := repo.Get("t1", "n1")
	require.NoError(t, err)
	require.Equal(t, "alpha", again.Body)
}

func TestReadersNeverObserveTornUpdates(t *testing.T) {
	repo := NewRepo[*note]()
	repo.Insert("n1", &note{ID: "n1", TenantID: "t1", Body: "v0"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, err := repo.Update("t1", "n1", func(n *note) (*note, error) {
				n.Body = "v1"
				return n, nil
			})
			require.NoError(t, err)
		}
	}()
	for i := 0; i < 200; i++ {
		got, err := repo.Get("t1", "n1")
		require.NoError(t, err)
		require.Contains(t, []string{"v0", "v1"}, got.Body)
	}
	<-done
}

func TestConcurrentInsertAndList(t *testing.T) {
	repo := NewRepo[*note]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a'+i%26)) + string(rune('0'+i/26))
			repo.Insert(id, &note{ID: id, TenantID: "t1"})
			_ = repo.List("t1")
		}(i)
	}
	wg.Wait()
	require.Len(t, repo.List("t1"), 50)
}
