package catalog

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/store"
)

var newestFirst = store.Query{OrderBy: "created_at", Desc: true}

// ResourceRequests returns every resource request, newest first.
func (s *Service) ResourceRequests(ctx context.Context) ([]ResourceRequest, error) {
	return cachedList(ctx, s, KeyResourceRequests, s.stores.ResourceRequests, newestFirst)
}

// SubmitResourceRequest files a pending request on behalf of the context's actor.
func (s *Service) SubmitResourceRequest(ctx context.Context, title, description string, edu EducationType) (ResourceRequest, error) {
	now := s.timestamp()
	r := ResourceRequest{
		ID:            s.newID(),
		Title:         trim(title),
		Description:   trim(description),
		EducationType: edu,
		Status:        RequestPending,
		RequestedBy:   ActorFrom(ctx),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return insert(ctx, s, s.stores.ResourceRequests, CollectionRequests, r.ID, r, KeyResourceRequests)
}

func (s *Service) UpdateResourceRequest(ctx context.Context, id string, in ResourceRequestUpdate) (ResourceRequest, error) {
	r, err := load(ctx, s.stores.ResourceRequests, CollectionRequests, id)
	if err != nil {
		return ResourceRequest{}, err
	}
	if in.Status != "" {
		r.Status = in.Status
	}
	if note := trim(in.AdminNote); note != "" {
		r.AdminNote = note
	}
	r.UpdatedAt = s.timestamp()
	return update(ctx, s, s.stores.ResourceRequests, CollectionRequests, id, r, KeyResourceRequests)
}

func (s *Service) DeleteResourceRequest(ctx context.Context, id string) error {
	return remove(ctx, s, s.stores.ResourceRequests, CollectionRequests, id, KeyResourceRequests)
}
