package inmemdb

import (
	"sync"

	"github.com/Amanroy9658/collegerp/core/course"
	"github.com/Amanroy9658/collegerp/core/user"
)

type (
	DB struct {
		user   *userTable
		course *courseTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{table: make(map[string]*course.Course)},
	}
}
