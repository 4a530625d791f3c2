package services

import (
	"campus-chat/domain/chat"
	"campus-chat/domain/search"
	"campus-chat/errors"
	"campus-chat/repositories"
	"context"
	stderrors "errors"
	"log/slog"
)

// ProfileSearcher resolves a parsed query to identities, best match first.
type ProfileSearcher interface {
	Search(ctx context.Context, query search.Query) ([]chat.Identity, error)
}

// DirectoryService answers identity lookups from storage and searches from the index.
type DirectoryService struct {
	log      *slog.Logger
	profiles repositories.IProfileRepository
	searcher ProfileSearcher
}

func NewDirectoryService(log *slog.Logger, profiles repositories.IProfileRepository, searcher ProfileSearcher) *DirectoryService {
	return &DirectoryService{log: log, profiles: profiles, searcher: searcher}
}

func (d *DirectoryService) LookupIdentity(ctx context.Context, id chat.Identity) (chat.Profile, error) {
	if err := ctx.Err(); err != nil {
		return chat.Profile{}, err
	}
	row, err := d.profiles.GetProfile(id)
	if err != nil {
		return chat.Profile{}, err
	}
	return chat.NormalizeProfile(row)
}

// SearchIdentities parses the raw input, asks the index and resolves every hit.
// Hits whose profile disappeared are skipped.
func (d *DirectoryService) SearchIdentities(ctx context.Context, input string) ([]chat.Profile, error) {
	query := search.NewSearchQuery(input)
	if query.IsEmpty() {
		return nil, nil
	}

	ids, err := d.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	profiles := make([]chat.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := d.LookupIdentity(ctx, id)
		if stderrors.Is(err, errors.ErrNotFound) {
			d.log.Debug("Indexed profile not found", "identity", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Reindex feeds every stored profile to the indexer and returns how many were indexed.
func (d *DirectoryService) Reindex(indexer ProfileIndexer) (int, error) {
	rows, err := d.profiles.ListProfiles()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		profile, err := chat.NormalizeProfile(row)
		if err != nil {
			d.log.Warn("Skipping malformed profile", "error", err)
			continue
		}
		if err = indexer.Index(profile); err != nil {
			return count, err
		}
		count++
	}
	d.log.Debug("Profiles indexed", "count", count)
	return count, nil
}
