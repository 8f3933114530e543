// Package bolt implements storage.Store on a bbolt key/value file.
//
// Layout: "users" id -> user, "chats" chat id -> user id, "habits" id -> habit,
// "progress" "<habit id>/<YYYY-MM-DD>" -> record. Fixed-width numeric keys
// keep cursor order equal to numeric order.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
	"go.etcd.io/bbolt"
)

var (
	usersBucket    = []byte("users")
	chatsBucket    = []byte("chats")
	habitsBucket   = []byte("habits")
	progressBucket = []byte("progress")
)

var timeNow = time.Now

type Store struct {
	db  *bbolt.DB
	loc *time.Location
}

type progressValue struct {
	HabitID int64  `json:"habit_id"`
	Date    string `json:"date"`
	Status  bool   `json:"status"`
}

func Open(path string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("bolt: create data dir: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{usersBucket, chatsBucket, habitsBucket, progressBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}

	return &Store{db: db, loc: loc}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func idKey(id int64) []byte {
	return fmt.Appendf(nil, "%020d", id)
}

func progressPrefix(habitID int64) []byte {
	return fmt.Appendf(nil, "%020d/", habitID)
}

func progressKey(habitID int64, day time.Time) []byte {
	return append(progressPrefix(habitID), habit.FormatDate(day)...)
}

func (s *Store) EnsureUser(_ context.Context, chatID int64, username string) (habit.User, error) {
	var u habit.User
	err := s.db.Update(func(tx *bbolt.Tx) error {
		users, chats := tx.Bucket(usersBucket), tx.Bucket(chatsBucket)
		chatKey := []byte(strconv.FormatInt(chatID, 10))

		if idb := chats.Get(chatKey); idb != nil {
			if err := json.Unmarshal(users.Get(idb), &u); err != nil {
				return err
			}
			if username == "" || username == u.Username {
				return nil
			}
			u.Username = username
		} else {
			seq, err := users.NextSequence()
			if err != nil {
				return err
			}
			u = habit.User{ID: int64(seq), ChatID: chatID, Username: username}
			if err := chats.Put(chatKey, idKey(u.ID)); err != nil {
				return err
			}
		}
		val, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return users.Put(idKey(u.ID), val)
	})
	if err != nil {
		return habit.User{}, fmt.Errorf("bolt: ensure user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByChat(_ context.Context, chatID int64) (habit.User, error) {
	var u habit.User
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		idb := tx.Bucket(chatsBucket).Get([]byte(strconv.FormatInt(chatID, 10)))
		if idb == nil {
			return nil
		}
		found = true
		return json.Unmarshal(tx.Bucket(usersBucket).Get(idb), &u)
	})
	if err != nil {
		return habit.User{}, fmt.Errorf("bolt: get user: %w", err)
	}
	if !found {
		return habit.User{}, fmt.Errorf("user with chat %d: %w", chatID, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) AddHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = timeNow()
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(usersBucket).Get(idKey(h.UserID)) == nil {
			return fmt.Errorf("user %d: %w", h.UserID, storage.ErrNotFound)
		}
		bucket := tx.Bucket(habitsBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		h.ID = int64(seq)
		return putHabit(bucket, h)
	})
	if err != nil {
		return habit.Habit{}, fmt.Errorf("bolt: add habit: %w", err)
	}
	h.CreatedAt = h.CreatedAt.In(s.loc)
	return h, nil
}

func putHabit(bucket *bbolt.Bucket, h habit.Habit) error {
	val, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return bucket.Put(idKey(h.ID), val)
}

func (s *Store) GetHabit(_ context.Context, id int64) (habit.Habit, error) {
	var h habit.Habit
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(habitsBucket).Get(idKey(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &h)
	})
	if err != nil {
		return habit.Habit{}, fmt.Errorf("bolt: get habit: %w", err)
	}
	if !found {
		return habit.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return s.localize(h), nil
}

func (s *Store) ListHabits(_ context.Context, userID int64) ([]habit.Habit, error) {
	var out []habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(habitsBucket).ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			if h.UserID == userID {
				out = append(out, s.localize(h))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: list habits: %w", err)
	}
	return out, nil
}

func (s *Store) ListDueHabits(ctx context.Context, userID int64, day time.Time) ([]habit.Habit, error) {
	habits, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return storage.FilterDue(habits, day.In(s.loc)), nil
}

func (s *Store) UpdateHabit(_ context.Context, h habit.Habit) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(habitsBucket)
		v := bucket.Get(idKey(h.ID))
		if v == nil {
			return fmt.Errorf("habit %d: %w", h.ID, storage.ErrNotFound)
		}
		var cur habit.Habit
		if err := json.Unmarshal(v, &cur); err != nil {
			return err
		}
		// owner and creation time are immutable
		h.UserID, h.CreatedAt = cur.UserID, cur.CreatedAt
		return putHabit(bucket, h)
	})
	if err != nil {
		return fmt.Errorf("bolt: update habit: %w", err)
	}
	return nil
}

func (s *Store) DeleteHabit(_ context.Context, id int64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		habits := tx.Bucket(habitsBucket)
		if habits.Get(idKey(id)) == nil {
			return fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
		}
		if err := habits.Delete(idKey(id)); err != nil {
			return err
		}
		progress := tx.Bucket(progressBucket)
		prefix := progressPrefix(id)
		var keys [][]byte
		c := progress.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := progress.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt: delete habit: %w", err)
	}
	return nil
}

func (s *Store) MarkDone(_ context.Context, habitID int64, day time.Time) error {
	day = day.In(s.loc)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(habitsBucket).Get(idKey(habitID)) == nil {
			return fmt.Errorf("habit %d: %w", habitID, storage.ErrNotFound)
		}
		val, err := json.Marshal(progressValue{HabitID: habitID, Date: habit.FormatDate(day), Status: true})
		if err != nil {
			return err
		}
		return tx.Bucket(progressBucket).Put(progressKey(habitID, day), val)
	})
	if err != nil {
		return fmt.Errorf("bolt: mark done: %w", err)
	}
	return nil
}

func (s *Store) ListCompletions(_ context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error) {
	var out []habit.CompletionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(progressBucket).Cursor()
		from := progressKey(habitID, start.In(s.loc))
		to := progressKey(habitID, end.In(s.loc))
		for k, v := c.Seek(from); k != nil && bytes.Compare(k, to) <= 0; k, v = c.Next() {
			var pv progressValue
			if err := json.Unmarshal(v, &pv); err != nil {
				return err
			}
			d, err := habit.ParseDate(pv.Date, s.loc)
			if err != nil {
				return fmt.Errorf("parse progress date %q: %w", pv.Date, err)
			}
			out = append(out, habit.CompletionRecord{HabitID: pv.HabitID, Date: d, Done: pv.Status})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: list progress: %w", err)
	}
	return out, nil
}

func (s *Store) ListReminders(_ context.Context) ([]habit.Reminder, error) {
	var out []habit.Reminder
	err := s.db.View(func(tx *bbolt.Tx) error {
		users := tx.Bucket(usersBucket)
		return tx.Bucket(habitsBucket).ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			if h.Reminder == nil {
				return nil
			}
			uv := users.Get(idKey(h.UserID))
			if uv == nil {
				return nil
			}
			var u habit.User
			if err := json.Unmarshal(uv, &u); err != nil {
				return err
			}
			out = append(out, habit.Reminder{Habit: s.localize(h), ChatID: u.ChatID})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: list reminders: %w", err)
	}
	return out, nil
}

func (s *Store) localize(h habit.Habit) habit.Habit {
	if !h.CreatedAt.IsZero() {
		h.CreatedAt = h.CreatedAt.In(s.loc)
	}
	return h
}

var _ storage.Store = (*Store)(nil)
