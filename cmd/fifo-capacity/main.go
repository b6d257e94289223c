// fifo-capacity probes the framed-capacity behavior of the record fifo:
// per-record overhead, the largest insertable record, and accounting at the
// full boundary, for both prefix widths.
package main

import (
	"fmt"
	"log"

	"github.com/sysprog21/recfifo/fifo"
)

func main() {
	for _, prefix := range []int{fifo.PrefixWidth1, fifo.PrefixWidth2} {
		probe(prefix)
		fmt.Println()
	}
}

func probe(prefix int) {
	const capacity = 65536

	f, err := fifo.New(capacity, prefix)
	if err != nil {
		log.Fatalf("create fifo: %v", err)
	}

	fmt.Printf("=== Prefix width %d ===\n", prefix)
	fmt.Printf("Capacity:            %d bytes\n", f.Capacity())
	fmt.Printf("Max record length:   %d bytes\n", f.MaxRecordLen())

	// Largest single record that actually fits.
	limit := f.MaxRecordLen()
	if limit > capacity-prefix {
		limit = capacity - prefix
	}
	fmt.Printf("\n--- Single record tests ---\n")
	for _, size := range []int{0, 1, 10, 100, 1000, 32768, limit, limit + 1} {
		if size > f.MaxRecordLen() {
			fmt.Printf("Record %6d bytes: skipped (exceeds prefix range)\n", size)
			continue
		}
		err := f.Insert(make([]byte, size))
		if err != nil {
			fmt.Printf("Record %6d bytes: FAIL (%v)\n", size, err)
			continue
		}
		fmt.Printf("Record %6d bytes: OK (%d live bytes)\n", size, f.Len())
		f.Skip()
	}

	// Fill with fixed-size records until the capacity error fires to show
	// the framed overhead.
	fmt.Printf("\n--- Fill test (100-byte records) ---\n")
	f.Reset()
	record := make([]byte, 100)
	count := 0
	for {
		if err := f.Insert(record); err != nil {
			fmt.Printf("Full after %d records: %d live bytes, %d free (%v)\n",
				count, f.Len(), f.Free(), err)
			break
		}
		count++
	}
	fmt.Printf("Framed record size: %d bytes (payload 100 + prefix %d)\n", 100+prefix, prefix)
}
