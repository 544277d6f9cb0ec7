package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/1imo/rooming-service/internal/rooming/models"
)

// ============================================================
// Draft Store
// ============================================================

var ErrDraftNotFound = errors.New("draft not found")

const draftPrefix = "draft:"

// DraftStore keeps the unsaved editor state of each room so an interrupted
// session can pick up where it left off.
type DraftStore struct {
	db *buntdb.DB
}

// OpenDraftStore opens the buntdb file at path (":memory:" for a throwaway
// store).
func OpenDraftStore(path string) (*DraftStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drafts: %w", err)
	}
	if err := db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.EverySecond,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure drafts: %w", err)
	}
	return &DraftStore{db: db}, nil
}

func (s *DraftStore) Close() error {
	return s.db.Close()
}

func draftKey(roomID int64) string {
	return draftPrefix + strconv.FormatInt(roomID, 10)
}

func (s *DraftStore) Save(d models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(draftKey(d.RoomID), string(data), nil)
		return err
	})
}

func (s *DraftStore) Load(roomID int64) (models.Draft, error) {
	var d models.Draft
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(draftKey(roomID))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &d)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return models.Draft{}, ErrDraftNotFound
	}
	return d, err
}

// Delete removes the draft of a room. Deleting a missing draft is not an
// error.
func (s *DraftStore) Delete(roomID int64) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(draftKey(roomID))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

// List returns the room IDs that currently have a draft, in key order.
func (s *DraftStore) List() ([]int64, error) {
	var ids []int64
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(draftPrefix+"*", func(key, _ string) bool {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, draftPrefix), 10, 64)
			if err != nil {
				zap.S().Errorw("parsing draft key failed", "key", key)
				return true
			}
			ids = append(ids, id)
			return true
		})
	})
	return ids, err
}
