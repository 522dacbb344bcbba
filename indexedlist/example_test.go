package indexedlist_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/slotted/alloc"
	"github.com/hupe1980/slotted/indexedlist"
)

// Example demonstrates cursor-based traversal and removal.
func Example() {
	l, err := indexedlist.NewFromSlice(alloc.NewHeap(), []string{"a", "b", "c"})
	if err != nil {
		log.Fatal(err)
	}
	defer l.Release()

	if err := l.Remove(l.Head().Next()); err != nil {
		log.Fatal(err)
	}

	for c := l.Head(); c.Valid(); c = c.Next() {
		v, _ := c.Value()
		fmt.Println(v)
	}
	// Output:
	// a
	// c
}

// Example_defragment demonstrates restoring random access by logical
// position after the physical layout has drifted.
func Example_defragment() {
	l, err := indexedlist.New[int](alloc.NewHeap(), 4)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Release()

	for _, v := range []int{2, 3} {
		if _, err := l.PushBack(v); err != nil {
			log.Fatal(err)
		}
	}
	if _, err := l.PushFront(1); err != nil {
		log.Fatal(err)
	}

	l.Defragment()

	fmt.Println(l.At(0), l.At(1), l.At(2))
	// Output: 1 2 3
}
