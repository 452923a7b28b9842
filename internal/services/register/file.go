package register

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"

	"go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

const (
	lockTimeout     = 1 * time.Second
	refreshDebounce = 15 * time.Millisecond
)

// FileStore shares slots between processes through one bbolt file. The
// database is opened only for the duration of a single read or write, so
// any number of processes can take turns on the file lock. Changes made by
// other processes are picked up through fsnotify.
type FileStore struct {
	path    string
	watcher *fsnotify.Watcher

	// writeMu orders local writes against refreshes so a refresh never
	// reads a value older than the one this store just recorded as seen.
	writeMu sync.Mutex

	mu    sync.Mutex
	seen  map[string][]byte
	slots map[string][]*FileSlot

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

func OpenFileStore(path string) (*FileStore, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("could not create register directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("could not create slots bucket: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("could not watch register directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		watcher: watcher,
		seen:    make(map[string][]byte),
		slots:   make(map[string][]*FileSlot),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.watch()
	return s, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Slot(key string) *FileSlot {
	current, err := s.read(key)
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Could not read initial register value")
	}

	slot := &FileSlot{store: s, key: key}

	s.mu.Lock()
	if _, ok := s.seen[key]; !ok {
		s.seen[key] = current
	}
	s.slots[key] = append(s.slots[key], slot)
	s.mu.Unlock()

	return slot
}

// publish writes the value and hands it to the other slots of this store
// holding the same key. The publishing slot never sees its own write.
func (s *FileStore) publish(from *FileSlot, value []byte) error {
	key := from.key

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("could not open bbolt database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(slotsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("could not write register %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key] = bytes.Clone(value)
	for _, slot := range s.slots[key] {
		if slot != from {
			slot.deliver(value)
		}
	}
	return nil
}

func (s *FileStore) read(key string) ([]byte, error) {
	values, err := s.readKeys([]string{key})
	if err != nil {
		return nil, err
	}
	return values[key], nil
}

func (s *FileStore) readKeys(keys []string) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return values, nil
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{ReadOnly: true, Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}
	defer db.Close()

	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(slotsBucket)
		if b == nil {
			return nil
		}
		for _, key := range keys {
			if v := b.Get([]byte(key)); v != nil {
				values[key] = bytes.Clone(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *FileStore) watch() {
	defer close(s.stopped)

	timer := time.NewTimer(refreshDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-s.done:
			timer.Stop()
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(refreshDebounce)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Warn().Err(err).Msg("Register watcher error")
		case <-timer.C:
			s.refresh()
		}
	}
}

func (s *FileStore) refresh() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	keys := make([]string, 0, len(s.slots))
	for key := range s.slots {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	values, err := s.readKeys(keys)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Could not refresh registers")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		next := values[key]
		if bytes.Equal(s.seen[key], next) {
			continue
		}
		s.seen[key] = next
		for _, slot := range s.slots[key] {
			slot.deliver(next)
		}
	}
}

func (s *FileStore) removeSlot(slot *FileSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := s.slots[slot.key]
	for i, candidate := range slots {
		if candidate == slot {
			slots = append(slots[:i:i], slots[i+1:]...)
			break
		}
	}
	if len(slots) == 0 {
		delete(s.slots, slot.key)
		return
	}
	s.slots[slot.key] = slots
}

func (s *FileStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		<-s.stopped

		s.mu.Lock()
		var all []*FileSlot
		for _, slots := range s.slots {
			all = append(all, slots...)
		}
		s.mu.Unlock()
		for _, slot := range all {
			_ = slot.Close()
		}
	})
	return err
}

type FileSlot struct {
	store *FileStore
	key   string

	mu     sync.Mutex
	subs   []*subscription
	closed bool
}

var _ ports.Register = (*FileSlot)(nil)

func (s *FileSlot) Publish(value []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.store.publish(s, value)
}

func (s *FileSlot) Get() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	return s.store.read(s.key)
}

func (s *FileSlot) Subscribe(handler func(prev, next []byte)) func() {
	s.store.mu.Lock()
	sub := newSubscription(handler, s.store.seen[s.key])
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.subs = append(s.subs, sub)
	}
	s.mu.Unlock()
	s.store.mu.Unlock()

	if closed {
		return func() {}
	}

	go sub.run()

	return func() {
		s.mu.Lock()
		for i, candidate := range s.subs {
			if candidate == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		sub.stop()
	}
}

func (s *FileSlot) deliver(value []byte) {
	s.mu.Lock()
	subs := append([]*subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.set(value)
	}
}

func (s *FileSlot) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *FileSlot) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	s.store.removeSlot(s)
	for _, sub := range subs {
		sub.stop()
	}
	return nil
}
