package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/rawbytedev/cowstr"
	"github.com/rawbytedev/cowstr/pkg/intern"
)

const banner = "cowstr demo: two-word strings with clone-on-write sharing"

func main() {
	a := cowstr.FromStatic(banner)
	fmt.Printf("static: %q len=%d heap=%v\n", a.String(), a.Len(), a.IsHeap())

	b := cowstr.From("This is a not long but can't store inlined!")
	c := b.Clone()
	c.Pop()
	fmt.Printf("original after clone+pop: %q\n", b.String())
	fmt.Printf("clone:                    %q\n", c.String())
	if _, err := c.WriteString("!"); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("clone equal again: %v\n", c.Equal(b))
	c.Release()
	b.Release()

	table := intern.NewTable(64)
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	keys := make([]cowstr.String, 0, 10000)
	for i := 0; i < 10000; i++ {
		keys = append(keys, table.Intern("service.discovery.backend.primary-endpoint"))
	}
	runtime.ReadMemStats(&after)
	fmt.Printf("interned 10000 copies, %d distinct, ~%d B allocated\n",
		table.Len(), after.TotalAlloc-before.TotalAlloc)
	for i := range keys {
		keys[i].Release()
	}
	table.Reset()
}
