package dummydb

import (
	"sync"

	"github.com/sitepass/sitepass/core/visitor"
)

type (
	DB struct {
		visitor  *visitorTable
		training *trainingTable
	}

	visitorTable struct {
		sync.RWMutex
		table map[int]*visitor.Visitor
	}

	trainingTable struct {
		sync.RWMutex
		table map[string]*visitor.TrainingRecord
	}
)

func Open() (*DB, error) {
	db := &DB{
		visitor:  &visitorTable{table: make(map[int]*visitor.Visitor)},
		training: &trainingTable{table: make(map[string]*visitor.TrainingRecord)},
	}
	return db, nil
}
