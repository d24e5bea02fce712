package main

import (
	"flag"
	"log"

	"heapdb/codec"
	"heapdb/db"
	"heapdb/repl"
)

func main() {
	memory := flag.Bool("m", false, "use an in memory database")
	dataFile := flag.String("f", "heap.db", "data file")
	schemaFile := flag.String("s", "schema.db", "schema file")
	slotCount := flag.Int("n", db.DefaultSlotCount, "slots per page for new pages")
	bigEndian := flag.Bool("b", false, "use big endian integers in the data file")
	flag.Parse()
	opts := []db.Option{db.WithSlotCount(*slotCount)}
	if *memory {
		opts = append(opts, db.WithMemoryStorage())
	}
	if *bigEndian {
		opts = append(opts, db.WithByteOrder(codec.BigEndian))
	}
	d, err := db.Open(*dataFile, *schemaFile, opts...)
	if err != nil {
		log.Fatal(err)
	}
	repl.New(d).Run()
}
