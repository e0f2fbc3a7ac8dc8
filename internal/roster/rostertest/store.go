// Package rostertest 提供内存实现的名单存储和通知记录器，语义与 PostgreSQL 实现一致
package rostertest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type Store struct {
	mu sync.Mutex

	nextID   int64
	shifts   map[int64]*domain.Shift
	members  []*domain.Membership
	workers  map[int64]*domain.Worker
	profiles map[int64]*domain.WorkerProfile
	results  map[[2]int64]*domain.ShiftResult
	appeals  []*domain.UnblockRequest
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		shifts:   make(map[int64]*domain.Shift),
		workers:  make(map[int64]*domain.Worker),
		profiles: make(map[int64]*domain.WorkerProfile),
		results:  make(map[[2]int64]*domain.ShiftResult),
		now:      time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func (s *Store) CreateShift(ctx context.Context, shift *domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift.ID = s.id()
	if shift.Status == "" {
		shift.Status = domain.ShiftStatusActive
	}
	s.shifts[shift.ID] = clone(shift)
	return nil
}

func (s *Store) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(shift), nil
}

func (s *Store) GetActiveShiftByCity(ctx context.Context, city string) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.Shift
	for _, shift := range s.shifts {
		if shift.City != city || shift.Status != domain.ShiftStatusActive {
			continue
		}
		if latest == nil || shift.ID > latest.ID {
			latest = shift
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return clone(latest), nil
}

func (s *Store) ListActiveShifts(ctx context.Context) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var shifts []*domain.Shift
	for _, shift := range s.shifts {
		if shift.Status == domain.ShiftStatusActive {
			shifts = append(shifts, clone(shift))
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].ID < shifts[j].ID })
	return shifts, nil
}

func (s *Store) CompleteShift(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusActive {
		return domain.ErrShiftNotActive
	}
	shift.Status = domain.ShiftStatusCompleted
	return nil
}

func (s *Store) find(shiftID, workerID int64) *domain.Membership {
	for _, m := range s.members {
		if m.ShiftID == shiftID && m.WorkerID == workerID {
			return m
		}
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, shiftID, workerID int64) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.find(shiftID, workerID)
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return clone(m), nil
}

func (s *Store) ListMembers(ctx context.Context, shiftID int64) ([]*domain.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*domain.RosterEntry
	for _, m := range s.members {
		if m.ShiftID != shiftID {
			continue
		}
		entry := &domain.RosterEntry{Membership: *m}
		if p, ok := s.profiles[m.WorkerID]; ok {
			entry.FullName = p.FullName
			entry.Phone = p.Phone
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Role != entries[j].Role {
			return entries[i].Role == domain.RoleMain
		}
		return entries[i].Position < entries[j].Position
	})
	return entries, nil
}

// occupying 返回某角色中仍占用名额的成员
func (s *Store) occupying(shiftID int64, role domain.MemberRole) []*domain.Membership {
	var out []*domain.Membership
	for _, m := range s.members {
		if m.ShiftID == shiftID && m.Role == role && !m.Status.Vacating() {
			out = append(out, m)
		}
	}
	return out
}

// nextPosition 取占用人数和最大位置中较大者加一，保证位置不与仍在名单上的成员重复
func nextPosition(occupying []*domain.Membership) int32 {
	next := int32(len(occupying))
	for _, m := range occupying {
		next = max(next, m.Position)
	}
	return next + 1
}

func (s *Store) CountMembers(ctx context.Context, shiftID int64, role domain.MemberRole) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.occupying(shiftID, role)), nil
}

func (s *Store) AddMembership(ctx context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[m.ShiftID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.find(m.ShiftID, m.WorkerID) != nil {
		return domain.ErrAlreadyRegistered
	}
	occupying := s.occupying(m.ShiftID, m.Role)
	if len(occupying) >= shift.Capacity(m.Role) {
		return domain.ErrCapacityExceeded
	}

	m.ID = s.id()
	m.Position = nextPosition(occupying)
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.now()
	}
	s.members = append(s.members, clone(m))
	return nil
}

func (s *Store) TransitionMembership(ctx context.Context, shiftID, workerID int64, from []domain.MemberStatus, to domain.MemberStatus) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.find(shiftID, workerID)
	if m == nil {
		return nil, domain.ErrNotFound
	}
	if !slices.Contains(from, m.Status) {
		return nil, domain.ErrStaleStatus
	}
	m.Status = to
	return clone(m), nil
}

func (s *Store) MarkReminderSent(ctx context.Context, shiftID, workerID int64, phase domain.Phase, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.find(shiftID, workerID)
	if m == nil {
		return domain.ErrNotFound
	}
	if phase == domain.PhaseMorning {
		m.MorningReminderSentAt = &at
	} else {
		m.EveningReminderSentAt = &at
	}
	return nil
}

func (s *Store) GetMembersPastDeadline(ctx context.Context, shiftID int64, role domain.MemberRole, phase domain.Phase, cutoff time.Time) ([]*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Membership
	for _, m := range s.members {
		if m.ShiftID != shiftID || m.Role != role || m.Status != domain.StatusRegistered {
			continue
		}
		sent := m.ReminderSentAt(phase)
		if sent == nil || sent.After(cutoff) {
			continue
		}
		out = append(out, clone(m))
	}
	return out, nil
}

func (s *Store) PromoteNextReserve(ctx context.Context, shiftID int64, morningStamp *time.Time) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mains := s.occupying(shiftID, domain.RoleMain)
	if len(mains) >= int(shift.MainSlots) {
		return nil, nil
	}

	var next *domain.Membership
	for _, m := range s.occupying(shiftID, domain.RoleReserve) {
		if m.Status != domain.StatusRegistered && m.Status != domain.StatusConfirmed {
			continue
		}
		if next == nil || m.Position < next.Position {
			next = m
		}
	}
	if next == nil {
		return nil, nil
	}

	next.Role = domain.RoleMain
	next.Status = domain.StatusRegistered
	next.Position = nextPosition(mains)
	next.EveningReminderSentAt = nil
	next.MorningReminderSentAt = nil
	if morningStamp != nil {
		at := *morningStamp
		next.MorningReminderSentAt = &at
	}
	return clone(next), nil
}

func (s *Store) CreateWorker(ctx context.Context, worker *domain.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.workers {
		if w.Handle == worker.Handle || w.Email == worker.Email {
			return domain.ErrWorkerExists
		}
	}

	worker.ID = s.id()
	if worker.RegisteredAt.IsZero() {
		worker.RegisteredAt = s.now()
	}
	s.workers[worker.ID] = clone(worker)
	return nil
}

func (s *Store) GetWorker(ctx context.Context, id int64) (*domain.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(w), nil
}

func (s *Store) GetProfile(ctx context.Context, workerID int64) (*domain.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.WorkerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[profile.WorkerID]
	if !ok {
		return domain.ErrNotFound
	}
	p, ok := s.profiles[profile.WorkerID]
	if !ok {
		p = &domain.WorkerProfile{WorkerID: profile.WorkerID, Rating: 5, IsActive: w.IsActive}
		s.profiles[profile.WorkerID] = p
	}
	p.City = profile.City
	p.FullName = profile.FullName
	p.Phone = profile.Phone
	p.Age = profile.Age
	*profile = *p
	return nil
}

func (s *Store) ListActiveProfilesByCity(ctx context.Context, city string) ([]*domain.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.WorkerProfile
	for _, p := range s.profiles {
		if p.City == city && p.IsActive {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func (s *Store) IncrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return domain.ErrNotFound
	}
	switch stat {
	case domain.StatTotalShifts:
		p.TotalShifts++
	case domain.StatConfirmedShifts:
		p.ConfirmedShifts++
	case domain.StatRefusedShifts:
		p.RefusedShifts++
	case domain.StatIgnoredShifts:
		p.IgnoredShifts++
	}
	return nil
}

func (s *Store) DecrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return domain.ErrNotFound
	}
	var field *int32
	switch stat {
	case domain.StatTotalShifts:
		field = &p.TotalShifts
	case domain.StatConfirmedShifts:
		field = &p.ConfirmedShifts
	case domain.StatRefusedShifts:
		field = &p.RefusedShifts
	case domain.StatIgnoredShifts:
		field = &p.IgnoredShifts
	default:
		return nil
	}
	if *field > 0 {
		*field--
	}
	return nil
}

func (s *Store) IncrementFailures(ctx context.Context, workerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.ConsecutiveFailures++
	return int(p.ConsecutiveFailures), nil
}

func (s *Store) ResetFailures(ctx context.Context, workerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return domain.ErrNotFound
	}
	p.ConsecutiveFailures = 0
	return nil
}

func (s *Store) BlockWorker(ctx context.Context, workerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[workerID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !p.IsActive {
		return false, nil
	}
	p.IsActive = false
	if w, ok := s.workers[workerID]; ok {
		w.IsActive = false
	}
	return true, nil
}

func (s *Store) UnblockWorker(ctx context.Context, workerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[workerID]
	if !ok {
		return domain.ErrNotFound
	}
	w.IsActive = true
	if p, ok := s.profiles[workerID]; ok {
		p.IsActive = true
		p.ConsecutiveFailures = 0
	}
	return nil
}

func (s *Store) SaveShiftResult(ctx context.Context, result *domain.ShiftResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[[2]int64{result.ShiftID, result.WorkerID}] = clone(result)
	return nil
}

func (s *Store) GetShiftResult(ctx context.Context, shiftID, workerID int64) (*domain.ShiftResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[[2]int64{shiftID, workerID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(r), nil
}

func (s *Store) ListShiftResults(ctx context.Context, shiftID int64) ([]*domain.ShiftResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ShiftResult
	for key, r := range s.results {
		if key[0] == shiftID {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func (s *Store) CreateUnblockRequest(ctx context.Context, req *domain.UnblockRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.appeals {
		if r.WorkerID == req.WorkerID && r.Status == domain.UnblockPending {
			return domain.ErrDuplicateAppeal
		}
	}
	req.ID = s.id()
	req.Status = domain.UnblockPending
	s.appeals = append(s.appeals, clone(req))
	return nil
}

func (s *Store) GetUnblockRequest(ctx context.Context, id int64) (*domain.UnblockRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.appeals {
		if r.ID == id {
			return clone(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListPendingUnblockRequests(ctx context.Context) ([]*domain.UnblockRequestView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.UnblockRequestView
	for _, r := range s.appeals {
		if r.Status != domain.UnblockPending {
			continue
		}
		view := &domain.UnblockRequestView{UnblockRequest: *r}
		if p, ok := s.profiles[r.WorkerID]; ok {
			view.FullName = p.FullName
			view.Phone = p.Phone
			view.RefusedShifts = p.RefusedShifts
			view.IgnoredShifts = p.IgnoredShifts
			view.ConsecutiveFailures = p.ConsecutiveFailures
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Store) ResolveUnblockRequest(ctx context.Context, id int64, status domain.UnblockStatus) (*domain.UnblockRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.appeals {
		if r.ID != id {
			continue
		}
		if r.Status != domain.UnblockPending {
			return nil, domain.ErrInvalidTransition
		}
		now := s.now()
		r.Status = status
		r.ResolvedAt = &now
		return clone(r), nil
	}
	return nil, domain.ErrNotFound
}
