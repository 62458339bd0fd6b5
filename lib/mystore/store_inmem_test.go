package mystore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	Name string
	Age  int
}

func TestInMemoryStore(t *testing.T) {
	c := context.TODO()

	store, cleanup, err := NewInMemoryStore[person](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get non-existing", func(t *testing.T) {
		_, exists, err := store.Get(c, "1")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Put and get", func(t *testing.T) {
		err := store.Put(c, "1", person{Name: "Marie", Age: 44})
		assert.NoError(t, err)

		p, exists, err := store.Get(c, "1")
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, "Marie", p.Name)
	})

	t.Run("List", func(t *testing.T) {
		err := store.Put(c, "2", person{Name: "Eva", Age: 48})
		assert.NoError(t, err)

		persons, err := store.List(c)
		assert.NoError(t, err)
		assert.Len(t, persons, 2)
	})

	t.Run("Put within transaction", func(t *testing.T) {
		err := store.RunInTransaction(c, func(c context.Context) error {
			return store.Put(c, "3", person{Name: "Tom", Age: 12})
		})
		assert.NoError(t, err)

		_, exists, err := store.Get(c, "3")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Failing transaction rolls back error", func(t *testing.T) {
		err := store.RunInTransaction(c, func(c context.Context) error {
			return fmt.Errorf("something failed")
		})
		assert.Error(t, err)
	})
}
