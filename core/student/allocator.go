package student

import (
	"sort"
	"sync"
)

// roomLocks hands out one mutex per room so seat shuffles in different rooms
// never block each other.
type roomLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[int]*sync.Mutex)}
}

func (rl *roomLocks) get(roomNo int) *sync.Mutex {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.locks[roomNo]
	if !ok {
		l = &sync.Mutex{}
		rl.locks[roomNo] = l
	}
	return l
}

// findAvailableSlot returns the lowest-numbered room with a free seat and the
// lowest free seat number in it. Gaps left by deletions are filled before a
// new room is opened.
func findAvailableSlot(occupancies []RoomOccupancy) Slot {
	sort.Slice(occupancies, func(i, j int) bool { return occupancies[i].RoomNo < occupancies[j].RoomNo })

	nextRoom := FirstRoomNo
	for _, occ := range occupancies {
		if occ.RoomNo < nextRoom {
			continue
		}
		if occ.RoomNo > nextRoom {
			// hole in the room numbering; open it
			return Slot{RoomNo: nextRoom, SeatNo: 1}
		}
		if !occ.IsFull() {
			return Slot{RoomNo: occ.RoomNo, SeatNo: lowestFreeSeat(occ.SeatsUsed)}
		}
		nextRoom = occ.RoomNo + 1
	}
	return Slot{RoomNo: nextRoom, SeatNo: 1}
}

func lowestFreeSeat(used []int) int {
	taken := make(map[int]bool, len(used))
	for _, s := range used {
		taken[s] = true
	}
	for seat := 1; seat <= RoomCapacity; seat++ {
		if !taken[seat] {
			return seat
		}
	}
	return RoomCapacity // unreachable when the room is not full
}

// reassignSeats renumbers a room's students densely (1..k) preserving their
// relative seat order. Returns only the students whose seat actually changed.
func reassignSeats(students []Student) []Student {
	sort.Slice(students, func(i, j int) bool { return students[i].SeatNo < students[j].SeatNo })

	changed := make([]Student, 0)
	for i := range students {
		if seat := i + 1; students[i].SeatNo != seat {
			students[i].SeatNo = seat
			changed = append(changed, students[i])
		}
	}
	return changed
}
