package main

import (
	"fmt"

	"github.com/boltdb/bolt"
)

func openDB(dbpath string) *bolt.DB {
	db, err := bolt.Open(dbpath, 0660, nil)
	if err != nil {
		panic(fmt.Sprintf("unable to init the database: %v", err))
	}

	return db
}
