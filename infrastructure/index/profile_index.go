// Package index indexes directory profiles with Bluge for identity search.
package index

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/search"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

const (
	fieldDisplayName = "display_name"
	fieldAffiliation = "affiliation"
)

type ProfileIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewProfileIndex opens an on-disk index at path, or an in-memory one when path is empty.
func NewProfileIndex(path string, log *slog.Logger) (*ProfileIndex, error) {
	config := bluge.InMemoryOnlyConfig()
	if path != "" {
		config = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("open profile index: %w", err)
	}
	return &ProfileIndex{writer: writer, log: log}, nil
}

// Index adds or replaces the profile's document.
func (p *ProfileIndex) Index(profile chat.Profile) error {
	doc := bluge.NewDocument(string(profile.ID)).
		AddField(bluge.NewTextField(fieldDisplayName, profile.DisplayName).StoreValue()).
		AddField(bluge.NewTextField(fieldAffiliation, profile.Affiliation).StoreValue())
	return p.writer.Update(doc.ID(), doc)
}

// Search returns matching identities, best score first.
// Every term must prefix-match a word of the display name or of the affiliation.
func (p *ProfileIndex) Search(ctx context.Context, query search.Query) ([]chat.Identity, error) {
	if query.IsEmpty() {
		return nil, nil
	}

	boolean := bluge.NewBooleanQuery()
	for _, term := range query.Terms {
		boolean.AddMust(bluge.NewBooleanQuery().
			AddShould(bluge.NewPrefixQuery(term).SetField(fieldDisplayName)).
			AddShould(bluge.NewPrefixQuery(term).SetField(fieldAffiliation)).
			SetMinShould(1))
	}
	for field, value := range query.Filters {
		if field != fieldAffiliation {
			p.log.Debug("Ignoring unknown search filter", "filter", field)
			continue
		}
		boolean.AddMust(bluge.NewMatchQuery(value).SetField(fieldAffiliation))
	}

	reader, err := p.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(query.Limit, boolean))
	if err != nil {
		return nil, err
	}

	var ids []chat.Identity
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, chat.Identity(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *ProfileIndex) Close() error {
	return p.writer.Close()
}
