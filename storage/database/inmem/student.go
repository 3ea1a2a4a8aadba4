package inmemdb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/student"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	return students
}

func (repo *studentRepository) CheckAadhaarUniqueness(aadhaarNo string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stu := range repo.query() {
		if !stu.IsDeleted && stu.AadhaarNo == aadhaarNo {
			return student.ErrAadhaarExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(stu student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkSeatFree(stu.RoomNo, stu.SeatNo, ""); err != nil {
		return student.Student{}, err
	}
	stu.ID = uuid.New().String()
	repo.db.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) checkSeatFree(roomNo, seatNo int, excludedID string) error {
	for _, stu := range repo.db.table {
		if !stu.IsDeleted && stu.RoomNo == roomNo && stu.SeatNo == seatNo && stu.ID != excludedID {
			return student.ErrSeatTaken
		}
	}
	return nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if stu, ok := repo.db.table[id]; ok {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetActiveStudentByCode(code string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, stu := range repo.query() {
		if !stu.IsDeleted && stu.RegistrationCode == code {
			return stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	search := strings.ToLower(filter.Search)
	for _, stu := range repo.query() {
		if filter.IsDeleted == nil {
			if stu.IsDeleted {
				continue
			}
		} else if stu.IsDeleted != *filter.IsDeleted {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(stu.Name), search) &&
			!strings.Contains(strings.ToLower(stu.RegistrationCode), search) &&
			!strings.Contains(strings.ToLower(stu.ApplicationNo), search) &&
			!strings.Contains(strings.ToLower(stu.SchoolName), search) {
			continue
		}
		if filter.Class != 0 && stu.Class != filter.Class {
			continue
		}
		if filter.Medium != "" && stu.Medium != filter.Medium {
			continue
		}
		if filter.RoomNo != 0 && stu.RoomNo != filter.RoomNo {
			continue
		}
		if filter.Status != "" && stu.Status != filter.Status {
			continue
		}
		matches = append(matches, stu)
	}
	applyOrderings(matches, filter.Orderings)
	return matches, nil
}

func (repo *studentRepository) QueryActiveStudents() ([]student.Student, error) {
	return repo.queryByDeleted(false)
}

func (repo *studentRepository) QueryDeletedStudents() ([]student.Student, error) {
	return repo.queryByDeleted(true)
}

func (repo *studentRepository) queryByDeleted(deleted bool) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	for _, stu := range repo.query() {
		if stu.IsDeleted == deleted {
			matches = append(matches, stu)
		}
	}
	sortByCode(matches)
	return matches, nil
}

func (repo *studentRepository) QueryActiveStudentsInRoom(roomNo int) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	for _, stu := range repo.query() {
		if !stu.IsDeleted && stu.RoomNo == roomNo {
			matches = append(matches, stu)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].SeatNo < matches[j].SeatNo })
	return matches, nil
}

func (repo *studentRepository) QueryRoomOccupancy() ([]student.RoomOccupancy, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byRoom := make(map[int]*student.RoomOccupancy)
	for _, stu := range repo.query() {
		if stu.IsDeleted {
			continue
		}
		occ, ok := byRoom[stu.RoomNo]
		if !ok {
			occ = &student.RoomOccupancy{RoomNo: stu.RoomNo}
			byRoom[stu.RoomNo] = occ
		}
		occ.Occupied++
		occ.SeatsUsed = append(occ.SeatsUsed, stu.SeatNo)
	}

	occs := make([]student.RoomOccupancy, 0, len(byRoom))
	for _, occ := range byRoom {
		sort.Ints(occ.SeatsUsed)
		occs = append(occs, *occ)
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].RoomNo < occs[j].RoomNo })
	return occs, nil
}

func (repo *studentRepository) QueryMarkedStudents() ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	for _, stu := range repo.query() {
		if !stu.IsDeleted && stu.HasMark() {
			matches = append(matches, stu)
		}
	}
	// highest mark first; ties resolve by registration order
	sort.SliceStable(matches, func(i, j int) bool {
		if *matches[i].Mark != *matches[j].Mark {
			return *matches[i].Mark > *matches[j].Mark
		}
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].RegistrationCode < matches[j].RegistrationCode
	})
	return matches, nil
}

func (repo *studentRepository) QueryTopPerformers(limit int) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	for _, stu := range repo.query() {
		if !stu.IsDeleted && stu.Rank != nil {
			matches = append(matches, stu)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return *matches[i].Rank < *matches[j].Rank })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (repo *studentRepository) MaxRegistrationSeq() (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var max int64
	for _, stu := range repo.query() {
		if seq, ok := student.ParseRegistrationSeq(student.OriginalCode(stu.RegistrationCode)); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (repo *studentRepository) MaxApplicationSeq(batch string) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var max int64
	for _, stu := range repo.query() {
		if seq, ok := student.ParseApplicationSeq(batch, student.OriginalCode(stu.ApplicationNo)); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (repo *studentRepository) NextRegistrationSeq() (int64, error) {
	return repo.nextSeq("registration")
}

func (repo *studentRepository) NextApplicationSeq(batch string) (int64, error) {
	return repo.nextSeq(batch)
}

func (repo *studentRepository) nextSeq(name string) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq[name]++
	return repo.db.seq[name], nil
}

func (repo *studentRepository) UpdateStudent(stu student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return repo.update(stu)
}

func (repo *studentRepository) UpdateStudents(students ...student.Student) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, stu := range students {
		if _, err := repo.update(stu); err != nil {
			return err
		}
	}
	return nil
}

func (repo *studentRepository) update(stu student.Student) (student.Student, error) {
	if _, ok := repo.db.table[stu.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if !stu.IsDeleted {
		if err := repo.checkSeatFree(stu.RoomNo, stu.SeatNo, stu.ID); err != nil {
			return student.Student{}, err
		}
		if err := repo.checkCodesFree(stu); err != nil {
			return student.Student{}, err
		}
	}
	repo.db.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) checkCodesFree(stu student.Student) error {
	for _, other := range repo.db.table {
		if other.ID == stu.ID || other.IsDeleted {
			continue
		}
		if other.RegistrationCode == stu.RegistrationCode || other.ApplicationNo == stu.ApplicationNo {
			return student.ErrCodeInUse
		}
	}
	return nil
}

func (repo *studentRepository) DeleteStudent(id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, id)
	return nil
}

func sortByCode(students []student.Student) {
	sort.Slice(students, func(i, j int) bool { return students[i].RegistrationCode < students[j].RegistrationCode })
}

// applyOrderings sorts by the first recognized ordering field; unknown fields
// fall back to registration code.
func applyOrderings(students []student.Student, orderings []core.DBOrdering) {
	for _, ord := range orderings {
		var less func(a, b student.Student) bool
		switch ord.Field {
		case "name":
			less = func(a, b student.Student) bool { return a.Name < b.Name }
		case "registration_code":
			less = func(a, b student.Student) bool { return a.RegistrationCode < b.RegistrationCode }
		case "room_no":
			less = func(a, b student.Student) bool { return a.RoomNo < b.RoomNo }
		case "class":
			less = func(a, b student.Student) bool { return a.Class < b.Class }
		case "created_at":
			less = func(a, b student.Student) bool { return a.CreatedAt.Before(b.CreatedAt) }
		default:
			continue
		}
		sort.SliceStable(students, func(i, j int) bool {
			if ord.Ascending {
				return less(students[i], students[j])
			}
			return less(students[j], students[i])
		})
		return
	}
	sortByCode(students)
}
