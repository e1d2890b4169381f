package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

// memDB is an in-memory relational store. Do serializes transactions and restores
// a snapshot when fn fails, which is all the services rely on.
type memDB struct {
	mu sync.Mutex

	users        map[string]models.User
	sessions     map[int64]models.Session
	frames       []models.FrameUpload
	commentaries []models.Commentary

	nextUser    int64
	nextSession int64
	nextFrame   int64

	clock func() time.Time

	failFrameInsert error
	commits         int
	rollbacks       int
}

func newMemDB() *memDB {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return &memDB{
		users:    map[string]models.User{},
		sessions: map[int64]models.Session{},
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

type memSnapshot struct {
	users        map[string]models.User
	sessions     map[int64]models.Session
	frames       []models.FrameUpload
	commentaries []models.Commentary
	nextUser     int64
	nextSession  int64
	nextFrame    int64
}

func (db *memDB) snapshot() memSnapshot {
	s := memSnapshot{
		users:        make(map[string]models.User, len(db.users)),
		sessions:     make(map[int64]models.Session, len(db.sessions)),
		frames:       append([]models.FrameUpload(nil), db.frames...),
		commentaries: append([]models.Commentary(nil), db.commentaries...),
		nextUser:     db.nextUser,
		nextSession:  db.nextSession,
		nextFrame:    db.nextFrame,
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.sessions {
		s.sessions[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.users = s.users
	db.sessions = s.sessions
	db.frames = s.frames
	db.commentaries = s.commentaries
	db.nextUser = s.nextUser
	db.nextSession = s.nextSession
	db.nextFrame = s.nextFrame
}

func (db *memDB) Do(ctx context.Context, fn func(repos ports.Repositories) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshot()
	r := memRepos{db: db}
	err := fn(ports.Repositories{Users: r, Sessions: r, Frames: memFrames{db: db}, Commentary: r})
	if err != nil {
		db.restore(snap)
		db.rollbacks++
		return err
	}
	db.commits++
	return nil
}

// addCommentary seeds upstream-written rows.
func (db *memDB) addCommentary(sessionID int64, text string, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.commentaries = append(db.commentaries, models.Commentary{
		ID:               int64(len(db.commentaries) + 1),
		SessionID:        sessionID,
		CommentatorModel: "test-model",
		CommentaryText:   text,
		CreatedAt:        at,
	})
}

func (db *memDB) frameRows() []models.FrameUpload {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.FrameUpload(nil), db.frames...)
}

func (db *memDB) userCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

func (db *memDB) session(id int64) (models.Session, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sessions[id]
	return s, ok
}

type memRepos struct {
	db *memDB
}

func (r memRepos) InsertIgnore(_ context.Context, subject string) error {
	if _, ok := r.db.users[subject]; ok {
		return nil
	}
	r.db.nextUser++
	r.db.users[subject] = models.User{ID: r.db.nextUser, ExternalSubject: subject}
	return nil
}

func (r memRepos) GetBySubject(_ context.Context, subject string) (*models.User, error) {
	u, ok := r.db.users[subject]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memRepos) Insert(_ context.Context, userID int64) (*models.Session, error) {
	r.db.nextSession++
	s := models.Session{
		ID:        r.db.nextSession,
		UserID:    userID,
		StartedAt: r.db.clock(),
		Status:    models.SessionActive,
	}
	r.db.sessions[s.ID] = s
	return &s, nil
}

func (r memRepos) End(_ context.Context, sessionID, ownerID int64) (*models.Session, error) {
	s, ok := r.db.sessions[sessionID]
	if !ok || s.Status != models.SessionActive || (ownerID != 0 && s.UserID != ownerID) {
		return nil, nil
	}
	now := r.db.clock()
	s.EndedAt = &now
	s.Status = models.SessionEnded
	r.db.sessions[sessionID] = s
	return &s, nil
}

func (r memRepos) GetByID(_ context.Context, sessionID int64) (*models.Session, error) {
	s, ok := r.db.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r memRepos) ListByUser(_ context.Context, userID int64) ([]models.SessionSummary, error) {
	var out []models.SessionSummary
	for _, s := range r.db.sessions {
		if s.UserID != userID {
			continue
		}
		sum := models.SessionSummary{Session: s}
		for _, c := range r.db.commentaries {
			if c.SessionID == s.ID {
				sum.CommentaryCount++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

type memFrames struct {
	db *memDB
}

func (r memFrames) Insert(_ context.Context, sessionID int64, key string) (*models.FrameUpload, error) {
	if r.db.failFrameInsert != nil {
		return nil, r.db.failFrameInsert
	}
	if _, ok := r.db.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("violates foreign key constraint on session %d", sessionID)
	}
	for _, f := range r.db.frames {
		if f.ObjectKey == key {
			return nil, errors.New("duplicate object_key")
		}
	}
	r.db.nextFrame++
	f := models.FrameUpload{ID: r.db.nextFrame, SessionID: sessionID, ObjectKey: key, CreatedAt: r.db.clock()}
	r.db.frames = append(r.db.frames, f)
	return &f, nil
}

func (r memRepos) ListBySession(_ context.Context, sessionID int64) ([]models.Commentary, error) {
	var out []models.Commentary
	for _, c := range r.db.commentaries {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// memObjects is an in-memory object store.
type memObjects struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
	puts         int
}

func newMemObjects() *memObjects {
	return &memObjects{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (m *memObjects) Put(_ context.Context, key, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.objects[key]; ok {
		return ports.ErrObjectExists
	}
	m.objects[key] = append([]byte(nil), body...)
	m.contentTypes[key] = contentType
	return nil
}

func (m *memObjects) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}
