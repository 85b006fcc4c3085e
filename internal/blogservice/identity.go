package blogservice

import (
	"time"

	"github.com/starford/inkwell/internal/models"
)

// idSource hands out time-derived ids. Two creates inside the same
// millisecond would collide on the clock alone, so an id that does not
// exceed the last one issued is bumped to last+1. Ids therefore stay
// unique and increasing for the life of the process.
type idSource struct {
	last int64
}

func (s *idSource) next(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// observe raises the floor to the largest id in blogs.
func (s *idSource) observe(blogs []models.Blog) {
	for _, b := range blogs {
		if b.ID > s.last {
			s.last = b.ID
		}
	}
}
