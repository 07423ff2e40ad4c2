package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"dialogue/repositories"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:<room>: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Room", "Username", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(describe(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// describe maps one stored value to a display row, keyed by namespace:
// msg:<room>:<datetime>:<id> for message records, user:<uid> for presence.
func describe(key string, value []byte) []string {
	parts := strings.Split(key, ":")
	switch parts[0] {
	case "msg":
		var record repositories.Record
		if err := json.Unmarshal(value, &record); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			break
		}
		stamp := "--:--:--"
		if len(parts) >= 3 {
			if seconds, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				stamp = time.Unix(seconds, 0).UTC().Format("15:04:05")
			}
		}
		return []string{key, "MSG", stamp, parts[1], record.Username, record.Body}
	case "user":
		var presence repositories.Presence
		if err := json.Unmarshal(value, &presence); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			break
		}
		detail := fmt.Sprintf("connections: %d", presence.Counter)
		return []string{key, "USER", "--:--:--", "-", presence.Username, detail}
	}
	return []string{key, "RAW", "--:--:--", "-", "-", "Size: " + strconv.Itoa(len(value)) + " bytes"}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Badger asks for a write open to truncate a dirty value log.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
