package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/illmade-knight/go-catalog/pkg/audit"
	"github.com/illmade-knight/go-catalog/pkg/store"
)

// ContentPacks returns every pack, newest first.
func (s *Service) ContentPacks(ctx context.Context) ([]ContentPack, error) {
	return cachedList(ctx, s, KeyContentPacks, s.stores.ContentPacks, newestFirst)
}

// ContentPackItems returns the items of one pack in position order.
func (s *Service) ContentPackItems(ctx context.Context, packID string) ([]ContentPackItem, error) {
	q := store.Where("pack_id", packID)
	q.OrderBy = "position"
	return cachedList(ctx, s, ContentPackItemsKey(packID), s.stores.ContentPackItems, q)
}

// CreateContentPack stores a pack authored by the context's actor. Status
// defaults to draft and visibility to public.
func (s *Service) CreateContentPack(ctx context.Context, in ContentPackInput) (ContentPack, error) {
	now := s.timestamp()
	p := ContentPack{
		ID:         s.newID(),
		Status:     PackDraft,
		Visibility: VisibilityPublic,
		CreatedBy:  ActorFrom(ctx),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyPackInput(&p, in)
	return insert(ctx, s, s.stores.ContentPacks, CollectionPacks, p.ID, p, KeyContentPacks)
}

func (s *Service) UpdateContentPack(ctx context.Context, id string, in ContentPackInput) (ContentPack, error) {
	p, err := load(ctx, s.stores.ContentPacks, CollectionPacks, id)
	if err != nil {
		return ContentPack{}, err
	}
	applyPackInput(&p, in)
	p.UpdatedAt = s.timestamp()
	return update(ctx, s, s.stores.ContentPacks, CollectionPacks, id, p, KeyContentPacks)
}

// DeleteContentPack removes a pack. Its items stay in the store; their cached
// list is dropped with it.
func (s *Service) DeleteContentPack(ctx context.Context, id string) error {
	return remove(ctx, s, s.stores.ContentPacks, CollectionPacks, id, KeyContentPacks, ContentPackItemsKey(id))
}

// AddContentPackItem places postID at position inside packID.
func (s *Service) AddContentPackItem(ctx context.Context, packID, postID string, position int) (ContentPackItem, error) {
	item := ContentPackItem{
		ID:        s.newID(),
		PackID:    trim(packID),
		PostID:    trim(postID),
		Position:  position,
		CreatedAt: s.timestamp(),
	}
	return insert(ctx, s, s.stores.ContentPackItems, CollectionPackItems, item.ID, item, ContentPackItemsKey(item.PackID))
}

// RemoveContentPackItem takes postID out of packID. Removing a post that is
// not in the pack is not an error.
func (s *Service) RemoveContentPackItem(ctx context.Context, packID, postID string) error {
	items, err := s.stores.ContentPackItems.List(ctx, store.Query{Where: []store.Filter{
		{Field: "pack_id", Value: packID},
		{Field: "post_id", Value: postID},
	}})
	if err != nil {
		return fmt.Errorf("failed to find %s in pack %s: %w", postID, packID, err)
	}

	var (
		done []string
		errs []error
	)
	for _, item := range items {
		if err := s.stores.ContentPackItems.Delete(ctx, item.ID); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s/%s: %w", CollectionPackItems, item.ID, err))
			continue
		}
		done = append(done, item.ID)
	}
	if len(done) > 0 {
		s.afterMutation(ctx, CollectionPackItems, audit.OpDelete, done, ContentPackItemsKey(packID))
	}
	return errors.Join(errs...)
}

func applyPackInput(p *ContentPack, in ContentPackInput) {
	if title := trim(in.Title); title != "" || p.Title == "" {
		p.Title = title
	}
	if desc := trim(in.Description); desc != "" {
		p.Description = desc
	}
	if in.EducationType != "" {
		p.EducationType = in.EducationType
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	if in.Visibility != "" {
		p.Visibility = in.Visibility
	}
}
