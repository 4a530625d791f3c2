package main

import (
	"campus-chat/domain/chat"
	"campus-chat/repositories"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

type view struct {
	prefix  string
	headers []string
	columns []string
}

var views = map[string]view{
	"conversations": {"conv:", []string{"Key", "Participants", "Created", "Last message", "Preview"},
		[]string{"participants", "created_at", "last_message_time", "last_message_preview"}},
	"messages": {"msg:", []string{"Key", "Sender", "Lang", "Created", "Content", "Censored"},
		[]string{"sender_id", "lang", "created_at", "content", "censored_words"}},
	"members": {"member:", []string{"Key", "Identity", "Last read", "Hidden"},
		[]string{"identity", "last_read_at", "hidden"}},
	"profiles": {"profile:", []string{"Key", "Name", "Affiliation", "Avatar"},
		[]string{"display_name", "affiliation", "avatar_url"}},
}

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	v, ok := views[config.Kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", config.Kind)
	}
	prefix := v.prefix
	if config.Kind == "messages" && config.Conversation != "" {
		prefix += config.Conversation + ":"
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	table := newTable(out, v.headers)
	err = repositories.ScanRows(db, prefix, func(key string, row chat.Row) error {
		table.Append(append([]string{key}, cells(row, v.columns)...))
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
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
	return table
}

func cells(row chat.Row, columns []string) []string {
	out := make([]string, len(columns))
	for i, column := range columns {
		out[i] = cell(row[column])
	}
	return out
}

func cell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = cell(item)
		}
		return strings.Join(parts, ",")
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
