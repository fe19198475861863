package strategy

import "github.com/san-kum/msgviz/internal/entity"

const fifoMinPrune = 64

// fifo remembers creation order so the oldest live entity can be retired.
// Removed ids are skipped lazily and filtered out whenever the queue doubles,
// so its length stays proportional to the live set.
type fifo struct {
	ids   []entity.ID
	head  int
	limit int
}

func (f *fifo) push(id entity.ID, live func(entity.ID) bool) {
	f.ids = append(f.ids, id)
	if len(f.ids)-f.head < max(f.limit, fifoMinPrune) {
		return
	}
	f.prune(live)
	f.limit = 2 * len(f.ids)
}

// prune drops ids that are no longer live, keeping order.
func (f *fifo) prune(live func(entity.ID) bool) {
	kept := f.ids[:0]
	for _, id := range f.ids[f.head:] {
		if live(id) {
			kept = append(kept, id)
		}
	}
	clear(f.ids[len(kept):])
	f.ids = kept
	f.head = 0
}

// oldest pops ids until one satisfies live.
func (f *fifo) oldest(live func(entity.ID) bool) (entity.ID, bool) {
	for f.head < len(f.ids) {
		id := f.ids[f.head]
		f.head++
		if live(id) {
			f.compact()
			return id, true
		}
	}
	f.reset()
	return 0, false
}

func (f *fifo) compact() {
	if f.head > fifoMinPrune && f.head*2 > len(f.ids) {
		n := copy(f.ids, f.ids[f.head:])
		f.ids = f.ids[:n]
		f.head = 0
	}
}

// Len is the number of queued ids, dead ones included.
func (f *fifo) Len() int { return len(f.ids) - f.head }

func (f *fifo) reset() {
	f.ids = f.ids[:0]
	f.head = 0
	f.limit = 0
}
