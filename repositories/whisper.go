package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/errors"
)

type IWhisperRepository interface {
	Save(whisper domain.Whisper) error
	Get(receiverID string, id uuid.UUID) (domain.Whisper, error)
	Inbox(receiverID string) ([]domain.Whisper, error)
}

type WhisperRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewWhisperRepository(db *badger.DB, log *slog.Logger) WhisperRepository {
	return WhisperRepository{db: db, log: log}
}

// whisperKey layout keeps an inbox sorted by arrival: the nanosecond
// timestamp is zero-padded so byte order matches chronological order.
func whisperKey(whisper domain.Whisper) []byte {
	return []byte(fmt.Sprintf("whisper:%s:%019d:%s",
		whisper.ReceiverID, whisper.CreatedAt.UnixNano(), whisper.ID))
}

func (r WhisperRepository) Save(whisper domain.Whisper) error {
	bytes, err := json.Marshal(whisper)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(whisperKey(whisper), bytes)
	})
}

// Get scans the receiver's inbox for a whisper id. Inboxes are small
// (voice notes expire client-side), so a prefix scan beats a second index.
func (r WhisperRepository) Get(receiverID string, id uuid.UUID) (domain.Whisper, error) {
	var found *domain.Whisper
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("whisper:%s:", receiverID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var whisper domain.Whisper
				if err := json.Unmarshal(val, &whisper); err != nil {
					return err
				}
				if whisper.ID == id {
					found = &whisper
				}
				return nil
			})
			if err != nil {
				return err
			}
			if found != nil {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return domain.Whisper{}, err
	}
	if found == nil {
		return domain.Whisper{}, errors.ErrWhisperNotFound
	}
	return *found, nil
}

func (r WhisperRepository) Inbox(receiverID string) ([]domain.Whisper, error) {
	var whispers []domain.Whisper
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("whisper:%s:", receiverID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var whisper domain.Whisper
				if err := json.Unmarshal(val, &whisper); err != nil {
					return err
				}
				whispers = append(whispers, whisper)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return whispers, err
}
