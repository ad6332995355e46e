package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/repository"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type PageService interface {
	GetPages(ctx context.Context, sessionID *int64, refresh bool) (*transfer.PageListing, error)
	SetSelection(ctx context.Context, sel *transfer.PageSelection) (int64, error)
}

type pageService struct {
	pr       repository.PageRepository
	sessions SessionService
	fb       FacebookService
}

func NewPageService(pr repository.PageRepository, sessions SessionService, fb FacebookService) PageService {
	return &pageService{
		pr:       pr,
		sessions: sessions,
		fb:       fb,
	}
}

// GetPages serves the cached page list, or with refresh pulls the remote list
// and merges it into the cache.
func (s *pageService) GetPages(ctx context.Context, sessionID *int64, refresh bool) (*transfer.PageListing, error) {
	session, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	existing, err := s.pr.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if !refresh {
		return &transfer.PageListing{SessionID: session.ID, Cached: true, Pages: existing}, nil
	}

	remote, err := s.fb.FetchPages(ctx, session.Cookie)
	if err != nil {
		if Classify(err) == OutcomeAuth {
			s.sessions.Invalidate(ctx, session.ID)
		}
		return nil, err
	}

	merged, toInsert, toRename := MergePages(session.ID, existing, remote)

	if err := s.pr.InsertMany(ctx, toInsert); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for _, p := range toRename {
		if err := s.pr.UpdateName(ctx, session.ID, p.ID, p.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	slog.Info("page cache refreshed", "session_id", session.ID, "pages", len(merged), "new", len(toInsert), "renamed", len(toRename))

	return &transfer.PageListing{SessionID: session.ID, Pages: merged}, nil
}

func (s *pageService) SetSelection(ctx context.Context, sel *transfer.PageSelection) (int64, error) {
	if _, err := s.sessions.Resolve(ctx, &sel.SessionID); err != nil {
		return 0, err
	}

	n, err := s.pr.SetSelected(ctx, sel.SessionID, sel.PageIDs, sel.Selected)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return n, nil
}

// MergePages reconciles a fetched remote list with the cached rows of one
// session. merged follows remote order and carries the local is_selected
// flag forward. toInsert holds pages not cached yet; toRename holds cached
// pages whose name changed. Pages missing remotely stay cached.
func MergePages(sessionID int64, existing []*models.Page, remote []transfer.RemotePage) (merged, toInsert, toRename []*models.Page) {
	local := make(map[string]*models.Page, len(existing))
	for _, p := range existing {
		local[p.ID] = p
	}

	seen := make(map[string]struct{}, len(remote))
	merged = make([]*models.Page, 0, len(remote))
	for _, rp := range remote {
		id := strings.TrimSpace(rp.ID.String())
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		page := &models.Page{ID: id, Name: rp.Name.String(), SessionID: sessionID}
		if cached, ok := local[id]; ok {
			page.IsSelected = cached.IsSelected
			if cached.Name != page.Name {
				toRename = append(toRename, page)
			}
		} else {
			toInsert = append(toInsert, page)
		}
		merged = append(merged, page)
	}

	return merged, toInsert, toRename
}
