// Package mockserver keeps the in-memory state of the development backend:
// accounts, reports and uploaded images.
package mockserver

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// NearbyLimit caps the number of reports returned by Nearby.
const NearbyLimit = 50

const earthRadiusKm = 6371.0

var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrForbidden     = errors.New("forbidden")
)

// Account is a registered user.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Report is a stored report. Coordinates and image are optional.
type Report struct {
	ID        int64
	UserID    int64
	Username  string
	Text      string
	Category  string
	Status    domain.ReportStatus
	Latitude  *float64
	Longitude *float64
	ImageURL  *string
	CreatedAt time.Time
}

// NewReport is the input of CreateReport.
type NewReport struct {
	UserID    int64
	Text      string
	Category  string
	Latitude  *float64
	Longitude *float64
	ImageURL  *string
}

// Image is an uploaded file.
type Image struct {
	ContentType string
	Data        []byte
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[int64]*Account
	byName   map[string]int64
	reports  []*Report
	images   map[string]Image
	lastUser int64
	lastRep  int64
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*Account),
		byName:   make(map[string]int64),
		images:   make(map[string]Image),
		now:      time.Now,
	}
}

// CreateAccount registers username. Usernames are unique.
func (s *Store) CreateAccount(username, passwordHash string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[username]; ok {
		return Account{}, ErrUsernameTaken
	}
	s.lastUser++
	a := &Account{ID: s.lastUser, Username: username, PasswordHash: passwordHash}
	s.accounts[a.ID] = a
	s.byName[username] = a.ID
	return *a, nil
}

// AccountByName looks up an account by username.
func (s *Store) AccountByName(username string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return Account{}, false
	}
	return *s.accounts[id], true
}

// AccountByID looks up an account by ID.
func (s *Store) AccountByID(id int64) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// CreateReport stores a new pending report.
func (s *Store) CreateReport(in NewReport) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[in.UserID]
	if !ok {
		return Report{}, domain.ErrNotFound
	}
	s.lastRep++
	r := &Report{
		ID:        s.lastRep,
		UserID:    a.ID,
		Username:  a.Username,
		Text:      in.Text,
		Category:  in.Category,
		Status:    domain.ReportStatusPending,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		ImageURL:  in.ImageURL,
		CreatedAt: s.now().UTC(),
	}
	s.reports = append(s.reports, r)
	return *r, nil
}

// Report returns one report by ID.
func (s *Store) Report(id int64) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reports {
		if r.ID == id {
			return *r, nil
		}
	}
	return Report{}, domain.ErrNotFound
}

// ReportsByUser returns the user's reports, newest first.
func (s *Store) ReportsByUser(userID int64) []Report {
	return s.filter(func(r *Report) bool { return r.UserID == userID })
}

// AllReports returns every report, newest first.
func (s *Store) AllReports() []Report {
	return s.filter(func(*Report) bool { return true })
}

func (s *Store) filter(keep func(*Report) bool) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Report, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		if keep(s.reports[i]) {
			out = append(out, *s.reports[i])
		}
	}
	return out
}

// SetStatus changes the status of a report owned by userID.
func (s *Store) SetStatus(id, userID int64, status domain.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reports {
		if r.ID != id {
			continue
		}
		if r.UserID != userID {
			return ErrForbidden
		}
		r.Status = status
		return nil
	}
	return domain.ErrNotFound
}

// Nearby returns located reports within radiusKm of at, nearest first and
// newest first among equals, at most NearbyLimit of them.
func (s *Store) Nearby(at domain.Coordinates, radiusKm float64) []Report {
	type hit struct {
		r    Report
		dist float64
	}

	s.mu.RLock()
	hits := make([]hit, 0)
	for _, r := range s.reports {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		d := Haversine(at, domain.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude})
		if d <= radiusKm {
			hits = append(hits, hit{*r, d})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].r.CreatedAt.After(hits[j].r.CreatedAt)
	})
	if len(hits) > NearbyLimit {
		hits = hits[:NearbyLimit]
	}

	out := make([]Report, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out
}

// Stats counts reports overall, by status and for userID.
func (s *Store) Stats(userID int64) domain.ReportStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domain.ReportStats{Total: len(s.reports)}
	for _, r := range s.reports {
		switch r.Status {
		case domain.ReportStatusPending:
			st.Pending++
		case domain.ReportStatusResolved:
			st.Resolved++
		}
		if r.UserID == userID {
			st.Mine++
		}
	}
	return st
}

// PutImage stores an uploaded file under name.
func (s *Store) PutImage(name string, img Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = img
}

// Image returns an uploaded file.
func (s *Store) Image(name string) (Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[name]
	return img, ok
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b domain.Coordinates) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
