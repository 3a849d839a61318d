package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/Bitcomethub/Somnus/domain"
)

type IBlockRepository interface {
	Save(block domain.Block) error
	IsBlocked(blockerID, blockedID string) (bool, error)
	BlockedBy(blockerID string) ([]domain.Block, error)
}

type BlockRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBlockRepository(db *badger.DB, log *slog.Logger) BlockRepository {
	return BlockRepository{db: db, log: log}
}

func blockKey(blockerID, blockedID string) []byte {
	return []byte(fmt.Sprintf("block:%s:%s", blockerID, blockedID))
}

func (r BlockRepository) Save(block domain.Block) error {
	bytes, err := json.Marshal(block)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(block.BlockerID, block.BlockedID), bytes)
	})
}

func (r BlockRepository) IsBlocked(blockerID, blockedID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(blockerID, blockedID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r BlockRepository) BlockedBy(blockerID string) ([]domain.Block, error) {
	var blocks []domain.Block
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("block:%s:", blockerID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var block domain.Block
				if err := json.Unmarshal(val, &block); err != nil {
					return err
				}
				blocks = append(blocks, block)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return blocks, err
}
