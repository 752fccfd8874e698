package seengo_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/seengo"
	"github.com/hupe1980/seengo/recordstore"
)

func Example() {
	ctx := context.Background()

	store, err := seengo.New(recordstore.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	defer store.Close()

	res, err := store.Add(ctx, "item-1")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Added, res.Total)

	// Adding the same identifier again is a no-op.
	res, err = store.Add(ctx, "item-1")
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Added, res.Total)

	// Output:
	// true 1
	// false 1
}

func ExampleStore_ImportMerge() {
	ctx := context.Background()

	store, err := seengo.New(recordstore.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	defer store.Close()

	if _, err := store.Add(ctx, "a"); err != nil {
		panic(err)
	}

	res, err := store.ImportMerge(ctx, []string{"a", "b", "c"})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.New, res.Duplicates, res.Total)

	// Output:
	// 2 1 3
}
