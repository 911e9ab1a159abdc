// Package rankindex maps ranks to students with an ordered tree.
package rankindex

import (
	"fmt"

	"github.com/google/btree"

	"admission/internal/admission/models"
	"admission/pkg/platform/sentinel"
)

const degree = 8

type entry struct {
	rank    int
	student *models.Student
}

// Index is an ordered rank lookup. Ranks are unique; there is no deletion.
type Index struct {
	tree *btree.BTreeG[entry]
}

func New() *Index {
	return &Index{
		tree: btree.NewG(degree, func(a, b entry) bool { return a.rank < b.rank }),
	}
}

// Insert links rank to student. It returns sentinel.ErrConflict when the rank
// is already present and leaves the index untouched.
func (i *Index) Insert(rank int, student *models.Student) error {
	if i.tree.Has(entry{rank: rank}) {
		return fmt.Errorf("rank %d: %w", rank, sentinel.ErrConflict)
	}
	i.tree.ReplaceOrInsert(entry{rank: rank, student: student})
	return nil
}

// Lookup returns the student holding rank.
func (i *Index) Lookup(rank int) (*models.Student, bool) {
	e, ok := i.tree.Get(entry{rank: rank})
	if !ok {
		return nil, false
	}
	return e.student, true
}

// Contains reports whether rank is taken.
func (i *Index) Contains(rank int) bool {
	return i.tree.Has(entry{rank: rank})
}

func (i *Index) Len() int {
	return i.tree.Len()
}

