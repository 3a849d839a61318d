package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"github.com/Bitcomethub/Somnus/domain"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"/tmp/somnus-badger"`
	Prefix         string `envconfig:"VIEWER_PREFIX" default:"user:"`
}

// viewer dumps the store as a table while the server keeps running.
// Read-only plus BypassLockGuard lets it open the same directory.
func main() {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	color.Cyan.Printf("=== Somnus store (%s) prefix %q ===\n", config.BadgerFilepath, config.Prefix)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(config.Prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append(describe(key, v))
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	table.Render()
	color.Green.Printf("%d entries\n", rows)
}

func describe(key string, val []byte) []string {
	parts := strings.Split(key, ":")
	kind := strings.ToUpper(parts[0])
	timestamp := "--:--:--"
	entity := "--------"
	detail := fmt.Sprintf("%d bytes", len(val))

	switch parts[0] {
	case "user":
		var user domain.User
		if err := json.Unmarshal(val, &user); err == nil {
			entity = shorten(user.ID)
			detail = fmt.Sprintf("%s | vibe=%q | embers=%d | focus=%dm",
				user.Username, user.CurrentVibe, user.EmberBalance, user.TotalFocusMin)
		}
	case "whisper":
		if len(parts) >= 4 {
			entity = shorten(parts[3])
			if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				timestamp = time.Unix(0, tsNano).Format("15:04:05")
			}
		}
		var whisper domain.Whisper
		if err := json.Unmarshal(val, &whisper); err == nil {
			detail = fmt.Sprintf("from %s (%s)", shorten(whisper.SenderID), whisper.MimeType)
		}
	case "block":
		if len(parts) >= 3 {
			entity = shorten(parts[1])
			detail = "blocked " + shorten(parts[2])
		}
	}

	return []string{key, kind, timestamp, entity, detail}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
