// Package storage keeps trade records in a buntdb database.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
)

const (
	keyPrefix  = "trade:"
	entryIndex = "entry_index"
)

var ErrTradeNotFound = errors.New("trade not found")

// record wraps a trade with its entry time in unix nanoseconds, which
// buntdb indexes numerically.
type record struct {
	EntryUnix int64           `json:"entry_unix"`
	Trade     *core.TradeInfo `json:"trade"`
}

// BuntStorage implements core.TradeStorage using BuntDB.
type BuntStorage struct {
	mu     sync.Mutex
	lastID int64
	db     *buntdb.DB
	log    logger.Logger
}

// FromMemory creates an in-memory storage
func FromMemory(log logger.Logger) (*BuntStorage, error) {
	return NewBuntStorage(":memory:", log)
}

// FromFile creates a file-based storage
func FromFile(file string, log logger.Logger) (*BuntStorage, error) {
	return NewBuntStorage(file, log)
}

// NewBuntStorage opens sourceFile and resumes IDs after the highest stored
// one.
func NewBuntStorage(sourceFile string, log logger.Logger) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(entryIndex, keyPrefix+"*", buntdb.IndexJSON("entry_unix"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	storage := &BuntStorage{db: db, log: log}
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(key, _ string) bool {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, keyPrefix), 10, 64)
			if err == nil && id > storage.lastID {
				storage.lastID = id
			}
			return true
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to scan trades: %w", err)
	}

	return storage, nil
}

func tradeKey(id int64) string {
	return fmt.Sprintf("%s%020d", keyPrefix, id)
}

// CreateTrade validates trade, assigns it the next ID and stores it.
func (b *BuntStorage) CreateTrade(trade *core.TradeInfo) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.lastID + 1
	stored := *trade
	stored.ID = id

	err := b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(record{EntryUnix: stored.Entry.UnixNano(), Trade: &stored})
		if err != nil {
			return fmt.Errorf("failed to marshal trade: %w", err)
		}

		if _, _, err = tx.Set(tradeKey(id), string(content), nil); err != nil {
			return fmt.Errorf("failed to store trade: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.lastID = id
	trade.ID = id
	return nil
}

// Trade returns the trade stored under id.
func (b *BuntStorage) Trade(id int64) (*core.TradeInfo, error) {
	var trade *core.TradeInfo

	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(tradeKey(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrTradeNotFound, id)
		}
		if err != nil {
			return err
		}

		var r record
		if err := json.Unmarshal([]byte(value), &r); err != nil {
			return fmt.Errorf("failed to unmarshal trade %d: %w", id, err)
		}
		trade = r.Trade
		return nil
	})

	return trade, err
}

// Trades returns the trades passing every filter, ordered by entry time.
func (b *BuntStorage) Trades(filters ...core.TradeFilter) ([]*core.TradeInfo, error) {
	trades := make([]*core.TradeInfo, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		err := tx.Ascend(entryIndex, func(key, value string) bool {
			var r record
			if err := json.Unmarshal([]byte(value), &r); err != nil || r.Trade == nil {
				b.log.WithField("key", key).Warn("Skipping unreadable trade")
				return true
			}

			for _, filter := range filters {
				if !filter(*r.Trade) {
					return true
				}
			}

			trades = append(trades, r.Trade)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over trades: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
