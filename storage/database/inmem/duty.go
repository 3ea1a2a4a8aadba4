package inmemdb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ppmhss/pariksha/core/duty"
)

type dutyRepository struct {
	invigilators *invigilatorTable
	duties       *dutyTable
}

func NewDutyRepository(db *DB) duty.Repository {
	return &dutyRepository{invigilators: db.invigilator, duties: db.duty}
}

func (repo *dutyRepository) CheckShortNameUniqueness(shortName string) error {
	repo.invigilators.mutex.RLock()
	defer repo.invigilators.mutex.RUnlock()

	for _, inv := range repo.invigilators.table {
		if !inv.IsDeleted && inv.ShortName == shortName {
			return duty.ErrShortNameExists
		}
	}
	return nil
}

func (repo *dutyRepository) CreateInvigilator(inv duty.Invigilator) (duty.Invigilator, error) {
	repo.invigilators.mutex.Lock()
	defer repo.invigilators.mutex.Unlock()

	inv.ID = uuid.New().String()
	repo.invigilators.table[inv.ID] = &inv
	return inv, nil
}

func (repo *dutyRepository) GetInvigilatorByID(id string) (duty.Invigilator, error) {
	repo.invigilators.mutex.RLock()
	defer repo.invigilators.mutex.RUnlock()

	if inv, ok := repo.invigilators.table[id]; ok {
		return *inv, nil
	}
	return duty.Invigilator{}, duty.ErrInvigilatorNotFound
}

func (repo *dutyRepository) QueryActiveInvigilators() ([]duty.Invigilator, error) {
	repo.invigilators.mutex.RLock()
	defer repo.invigilators.mutex.RUnlock()

	invs := make([]duty.Invigilator, 0, len(repo.invigilators.table))
	for _, inv := range repo.invigilators.table {
		if !inv.IsDeleted {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].ShortName < invs[j].ShortName })
	return invs, nil
}

func (repo *dutyRepository) UpdateInvigilator(inv duty.Invigilator) (duty.Invigilator, error) {
	repo.invigilators.mutex.Lock()
	defer repo.invigilators.mutex.Unlock()

	if _, ok := repo.invigilators.table[inv.ID]; !ok {
		return duty.Invigilator{}, duty.ErrInvigilatorNotFound
	}
	repo.invigilators.table[inv.ID] = &inv
	return inv, nil
}

func (repo *dutyRepository) CreateDuty(d duty.Duty) (duty.Duty, error) {
	repo.duties.mutex.Lock()
	defer repo.duties.mutex.Unlock()

	for _, other := range repo.duties.table {
		if !sameDate(other.ExamDate, d.ExamDate) {
			continue
		}
		if other.RoomNo == d.RoomNo {
			return duty.Duty{}, duty.ErrRoomAssigned
		}
		if other.InvigilatorID == d.InvigilatorID {
			return duty.Duty{}, duty.ErrInvigilatorBusy
		}
	}

	d.ID = uuid.New().String()
	repo.duties.table[d.ID] = &d
	return d, nil
}

func (repo *dutyRepository) GetDutyByID(id string) (duty.Duty, error) {
	repo.duties.mutex.RLock()
	defer repo.duties.mutex.RUnlock()

	if d, ok := repo.duties.table[id]; ok {
		return *d, nil
	}
	return duty.Duty{}, duty.ErrDutyNotFound
}

func (repo *dutyRepository) QueryDutiesByDate(date time.Time) ([]duty.Duty, error) {
	return repo.queryDuties(func(d *duty.Duty) bool { return sameDate(d.ExamDate, date) })
}

func (repo *dutyRepository) QueryDutiesByBatch(batchID string) ([]duty.Duty, error) {
	return repo.queryDuties(func(d *duty.Duty) bool { return d.BatchID == batchID })
}

func (repo *dutyRepository) QueryDutiesByInvigilator(invigilatorID string) ([]duty.Duty, error) {
	return repo.queryDuties(func(d *duty.Duty) bool { return d.InvigilatorID == invigilatorID })
}

func (repo *dutyRepository) queryDuties(match func(*duty.Duty) bool) ([]duty.Duty, error) {
	repo.duties.mutex.RLock()
	defer repo.duties.mutex.RUnlock()

	duties := make([]duty.Duty, 0)
	for _, d := range repo.duties.table {
		if match(d) {
			duties = append(duties, *d)
		}
	}
	sort.Slice(duties, func(i, j int) bool {
		if !duties[i].ExamDate.Equal(duties[j].ExamDate) {
			return duties[i].ExamDate.Before(duties[j].ExamDate)
		}
		return duties[i].RoomNo < duties[j].RoomNo
	})
	return duties, nil
}

func (repo *dutyRepository) UpdateDuty(d duty.Duty) (duty.Duty, error) {
	repo.duties.mutex.Lock()
	defer repo.duties.mutex.Unlock()

	if _, ok := repo.duties.table[d.ID]; !ok {
		return duty.Duty{}, duty.ErrDutyNotFound
	}
	repo.duties.table[d.ID] = &d
	return d, nil
}

func (repo *dutyRepository) DeleteDuty(id string) error {
	repo.duties.mutex.Lock()
	defer repo.duties.mutex.Unlock()
	delete(repo.duties.table, id)
	return nil
}

func (repo *dutyRepository) DeleteDutiesByBatch(batchID string) error {
	repo.duties.mutex.Lock()
	defer repo.duties.mutex.Unlock()

	for id, d := range repo.duties.table {
		if d.BatchID == batchID {
			delete(repo.duties.table, id)
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
