// Package memory provides an in-process repository.Store used by tests and
// by the shell when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
)

type tables struct {
	patients     map[string]domain.User
	caregivers   map[string]domain.User
	vaccines     map[string]int
	availability []domain.Availability
	appointments map[int64]domain.Appointment
	nextAvailID  int64
	nextApptID   int64
}

func newTables() *tables {
	return &tables{
		patients:     make(map[string]domain.User),
		caregivers:   make(map[string]domain.User),
		vaccines:     make(map[string]int),
		appointments: make(map[int64]domain.Appointment),
		nextAvailID:  1,
		nextApptID:   1,
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		patients:     make(map[string]domain.User, len(t.patients)),
		caregivers:   make(map[string]domain.User, len(t.caregivers)),
		vaccines:     make(map[string]int, len(t.vaccines)),
		availability: append([]domain.Availability(nil), t.availability...),
		appointments: make(map[int64]domain.Appointment, len(t.appointments)),
		nextAvailID:  t.nextAvailID,
		nextApptID:   t.nextApptID,
	}
	for k, v := range t.patients {
		c.patients[k] = v
	}
	for k, v := range t.caregivers {
		c.caregivers[k] = v
	}
	for k, v := range t.vaccines {
		c.vaccines[k] = v
	}
	for k, v := range t.appointments {
		c.appointments[k] = v
	}
	return c
}

func (t *tables) users(kind domain.UserKind) map[string]domain.User {
	if kind == domain.UserKindCaregiver {
		return t.caregivers
	}
	return t.patients
}

// Store keeps every table in memory. A unit of work runs against a private
// copy of the tables which replaces the live copy only when it succeeds, so a
// failing unit leaves no trace. Units of work are serialized.
type Store struct {
	mu   sync.Mutex
	data *tables
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

// Repos returns repositories that lock the store for each call. They must
// not be used from inside WithinTx.
func (s *Store) Repos() repository.Repositories {
	return bind(&view{lock: &s.mu, store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.data.clone()
	if err := fn(bind(&view{tx: draft})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = draft
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

// view resolves the tables a repository call operates on. Live views lock the
// store and read its current tables; transaction views own a draft.
type view struct {
	lock  *sync.Mutex
	store *Store
	tx    *tables
}

func (v *view) run(fn func(t *tables) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.lock.Lock()
	defer v.lock.Unlock()
	return fn(v.store.data)
}

func bind(v *view) repository.Repositories {
	return repository.Repositories{
		Users:        &userRepo{v: v},
		Availability: &availabilityRepo{v: v},
		Vaccines:     &vaccineRepo{v: v},
		Appointments: &appointmentRepo{v: v},
	}
}

type userRepo struct{ v *view }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.v.run(func(t *tables) error {
		m := t.users(user.Kind)
		if _, ok := m[user.Username]; ok {
			return repository.ErrDuplicate
		}
		stored := *user
		stored.Salt = append([]byte(nil), user.Salt...)
		stored.Hash = append([]byte(nil), user.Hash...)
		m[user.Username] = stored
		return nil
	})
}

func (r *userRepo) GetByUsername(ctx context.Context, kind domain.UserKind, username string) (*domain.User, error) {
	var out *domain.User
	err := r.v.run(func(t *tables) error {
		u, ok := t.users(kind)[username]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) Exists(ctx context.Context, kind domain.UserKind, username string) (bool, error) {
	var exists bool
	err := r.v.run(func(t *tables) error {
		_, exists = t.users(kind)[username]
		return nil
	})
	return exists, err
}

type availabilityRepo struct{ v *view }

func (r *availabilityRepo) Create(ctx context.Context, caregiver string, date time.Time) (*domain.Availability, error) {
	var out domain.Availability
	err := r.v.run(func(t *tables) error {
		out = domain.Availability{ID: t.nextAvailID, Caregiver: caregiver, Date: date}
		t.nextAvailID++
		t.availability = append(t.availability, out)
		return nil
	})
	return &out, err
}

func (r *availabilityRepo) ListSchedule(ctx context.Context, date time.Time) ([]domain.ScheduleEntry, error) {
	var out []domain.ScheduleEntry
	err := r.v.run(func(t *tables) error {
		names := make([]string, 0, len(t.vaccines))
		for name := range t.vaccines {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, cg := range availableOn(t, date) {
			for _, name := range names {
				out = append(out, domain.ScheduleEntry{Caregiver: cg, Vaccine: name, Doses: t.vaccines[name]})
			}
		}
		return nil
	})
	return out, err
}

func (r *availabilityRepo) FirstUnbooked(ctx context.Context, date time.Time) (string, error) {
	var out string
	err := r.v.run(func(t *tables) error {
		for _, cg := range availableOn(t, date) {
			if !bookedOn(t, cg, date) {
				out = cg
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *availabilityRepo) DeleteForCaregiver(ctx context.Context, caregiver string, date time.Time) (int64, error) {
	var removed int64
	err := r.v.run(func(t *tables) error {
		kept := t.availability[:0:0]
		for _, a := range t.availability {
			if a.Caregiver == caregiver && domain.SameDay(a.Date, date) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if removed == 0 {
			return repository.ErrNotFound
		}
		t.availability = kept
		return nil
	})
	return removed, err
}

// availableOn returns the distinct caregivers available on date, sorted.
func availableOn(t *tables, date time.Time) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range t.availability {
		if !domain.SameDay(a.Date, date) {
			continue
		}
		if _, ok := seen[a.Caregiver]; ok {
			continue
		}
		seen[a.Caregiver] = struct{}{}
		out = append(out, a.Caregiver)
	}
	sort.Strings(out)
	return out
}

func bookedOn(t *tables, caregiver string, date time.Time) bool {
	for _, ap := range t.appointments {
		if ap.Caregiver == caregiver && domain.SameDay(ap.Date, date) {
			return true
		}
	}
	return false
}

type vaccineRepo struct{ v *view }

func (r *vaccineRepo) AddDoses(ctx context.Context, name string, count int) (*domain.Vaccine, error) {
	var out domain.Vaccine
	err := r.v.run(func(t *tables) error {
		current := t.vaccines[name]
		if count > repository.MaxDoses-current {
			return repository.ErrOutOfRange
		}
		t.vaccines[name] = current + count
		out = domain.Vaccine{Name: name, Doses: t.vaccines[name]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *vaccineRepo) Get(ctx context.Context, name string) (*domain.Vaccine, error) {
	var out *domain.Vaccine
	err := r.v.run(func(t *tables) error {
		doses, ok := t.vaccines[name]
		if !ok {
			return repository.ErrNotFound
		}
		out = &domain.Vaccine{Name: name, Doses: doses}
		return nil
	})
	return out, err
}

// GetForUpdate is Get: units of work already hold the store exclusively.
func (r *vaccineRepo) GetForUpdate(ctx context.Context, name string) (*domain.Vaccine, error) {
	return r.Get(ctx, name)
}

func (r *vaccineRepo) DecrementOne(ctx context.Context, name string) error {
	return r.v.run(func(t *tables) error {
		doses, ok := t.vaccines[name]
		if !ok {
			return repository.ErrNotFound
		}
		if doses <= 0 {
			return repository.ErrInsufficientDoses
		}
		t.vaccines[name] = doses - 1
		return nil
	})
}

type appointmentRepo struct{ v *view }

func (r *appointmentRepo) Create(ctx context.Context, appt *domain.Appointment) error {
	return r.v.run(func(t *tables) error {
		if bookedOn(t, appt.Caregiver, appt.Date) {
			return repository.ErrDuplicate
		}
		appt.ID = t.nextApptID
		t.nextApptID++
		t.appointments[appt.ID] = *appt
		return nil
	})
}

func (r *appointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var out *domain.Appointment
	err := r.v.run(func(t *tables) error {
		a, ok := t.appointments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *appointmentRepo) ListByPatient(ctx context.Context, patient string) ([]domain.Appointment, error) {
	return r.list(func(a domain.Appointment) bool { return a.Patient == patient })
}

func (r *appointmentRepo) ListByCaregiver(ctx context.Context, caregiver string) ([]domain.Appointment, error) {
	return r.list(func(a domain.Appointment) bool { return a.Caregiver == caregiver })
}

func (r *appointmentRepo) list(match func(domain.Appointment) bool) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.v.run(func(t *tables) error {
		for _, a := range t.appointments {
			if match(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *appointmentRepo) Delete(ctx context.Context, id int64) error {
	return r.v.run(func(t *tables) error {
		if _, ok := t.appointments[id]; !ok {
			return repository.ErrNotFound
		}
		delete(t.appointments, id)
		return nil
	})
}
