package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only badger browser plus live presence
// counters on a side port. Development tool only, never mounted behind
// the public listener.
func StartDebugServer(db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "user:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// DefaultMapper understands the store's key layouts: "user:<id>",
// "whisper:<receiver>:<padded-nanos>:<uuid>" and "block:<a>:<b>".
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if len(parts) == 0 {
		return row
	}
	row.Type = strings.ToUpper(parts[0])

	switch parts[0] {
	case "user":
		if len(parts) >= 2 {
			row.EntityID = shorten(parts[1])
		}
		var user struct {
			Username    string `json:"username"`
			CurrentVibe string `json:"currentVibe"`
			Embers      int    `json:"emberBalance"`
		}
		if err := json.Unmarshal(val, &user); err == nil {
			row.Detail = fmt.Sprintf("%s | vibe=%q | embers=%d", user.Username, user.CurrentVibe, user.Embers)
		}
	case "whisper":
		if len(parts) >= 4 {
			row.EntityID = shorten(parts[3])
			if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
			}
			var whisper struct {
				SenderID string `json:"senderId"`
				MimeType string `json:"mimeType"`
			}
			if err := json.Unmarshal(val, &whisper); err == nil {
				row.Detail = fmt.Sprintf("from %s (%s)", shorten(whisper.SenderID), whisper.MimeType)
			}
		}
	case "block":
		if len(parts) >= 3 {
			row.EntityID = shorten(parts[1])
			row.Detail = fmt.Sprintf("blocked %s", shorten(parts[2]))
		}
	}
	return row
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
