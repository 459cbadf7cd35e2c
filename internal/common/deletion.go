package common

import "errors"

var (
	ErrAlreadyDeleted = errors.New("already deleted")
	ErrNotDeleted     = errors.New("not deleted")
)

type DeletionStatus string

const (
	DeletionActive   DeletionStatus = "active"
	DeletionDeleted  DeletionStatus = "deleted"
	DeletionRestored DeletionStatus = "restored"
)

// Deletion is the soft-delete state of a row, tagged explicitly rather than
// inferred from which timestamp fields happen to be set. Timestamps are
// unix nanos.
type Deletion struct {
	Status     DeletionStatus `json:"status,omitempty"`
	DeletedOn  int64          `json:"deletedOn,omitempty"`
	RestoredOn int64          `json:"restoredOn,omitempty"`
	Count      int            `json:"count,omitempty"` // times deleted
}

// Active reports whether the row should be visible to listings and budget
// sums. A restored row is active again.
func (d *Deletion) Active() bool {
	return d.Status != DeletionDeleted
}

func (d *Deletion) Delete(ts int64) error {
	if d.Status == DeletionDeleted {
		return ErrAlreadyDeleted
	}
	d.Status = DeletionDeleted
	d.DeletedOn = ts
	d.Count++
	return nil
}

func (d *Deletion) Restore(ts int64) error {
	if d.Status != DeletionDeleted {
		return ErrNotDeleted
	}
	d.Status = DeletionRestored
	d.RestoredOn = ts
	return nil
}
