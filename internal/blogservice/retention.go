package blogservice

import (
	"time"

	"github.com/starford/inkwell/internal/models"
)

// DefaultRetention is how long a soft-deleted blog survives before the
// sweep drops it for good.
const DefaultRetention = 7 * 24 * time.Hour

// Sweep returns blogs without the soft-deleted records whose retention
// window has elapsed at now, and how many were dropped. A deleted record
// with no deletion time counts as expired. A live record carrying a stray
// deletion time has it cleared so deletedAt stays set iff deleted.
func Sweep(blogs []models.Blog, now time.Time, window time.Duration) ([]models.Blog, int) {
	kept := make([]models.Blog, 0, len(blogs))
	purged := 0
	for _, b := range blogs {
		if b.Deleted {
			if b.DeletedAt == nil || b.DeletedAt.IsZero() || now.Sub(b.DeletedAt.Time) >= window {
				purged++
				continue
			}
		} else if b.DeletedAt != nil {
			b.DeletedAt = nil
		}
		kept = append(kept, b)
	}
	return kept, purged
}
