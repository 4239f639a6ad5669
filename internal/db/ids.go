package db

import (
	"fmt"

	"github.com/hasisahr/csmt/internal/store"
)

// Family is a record family with its own identifier space
type Family string

const (
	FamilyCompany  Family = "company"
	FamilyEmployee Family = "employee"
	FamilyTask     Family = "task"
	FamilyMessage  Family = "message"
)

func (f Family) table() (string, error) {
	switch f {
	case FamilyCompany, FamilyEmployee, FamilyTask, FamilyMessage:
		return string(f), nil
	default:
		return "", fmt.Errorf("unknown id family %q", string(f))
	}
}

// NextID returns one more than the largest identifier in family, or 1 when
// the family is empty.
//
// The scan and the insert that uses its result are not atomic. Two callers
// racing may both get the same value; the second insert then fails on the
// primary key as a storage error.
func (db *DB) NextID(family Family) (int64, error) {
	table, err := family.table()
	if err != nil {
		return 0, store.Wrap("next id", err)
	}

	var ids []int64
	if err := db.Select(&ids, "SELECT id FROM "+table); err != nil {
		return 0, store.Wrap("next "+table+" id", err)
	}

	var highest int64
	for _, id := range ids {
		if id > highest {
			highest = id
		}
	}
	return highest + 1, nil
}
