package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/illmade-knight/go-catalog/pkg/audit"
	"github.com/illmade-knight/go-catalog/pkg/store"
)

const (
	publishedPostsLimit = 20
	defaultPostsPerPage = 50
)

// Attachment is a file uploaded alongside a new post.
type Attachment struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// PublishedPosts returns the latest published posts, newest first.
func (s *Service) PublishedPosts(ctx context.Context) ([]Post, error) {
	q := store.Query{
		Where:   []store.Filter{{Field: "published", Value: true}},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   publishedPostsLimit,
	}
	return cachedList(ctx, s, KeyPublishedPosts, s.stores.Posts, q)
}

// AllPosts pages through every post, newest first. It is not cached: the
// admin listing must reflect drafts immediately.
func (s *Service) AllPosts(ctx context.Context, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPostsPerPage
	}
	posts, err := s.stores.Posts.List(ctx, store.Query{
		OrderBy: "created_at",
		Desc:    true,
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *Service) Post(ctx context.Context, id string) (Post, error) {
	return load(ctx, s.stores.Posts, CollectionPosts, id)
}

// CreatePost stores a new post authored by the context's actor. A non-nil
// attachment is uploaded first and its URL replaces in.FileURL.
func (s *Service) CreatePost(ctx context.Context, in PostInput, att *Attachment) (Post, error) {
	now := s.timestamp()
	p := Post{
		ID:        s.newID(),
		CreatedBy: ActorFrom(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyPostInput(&p, in)
	if err := s.check(p); err != nil {
		return Post{}, err
	}

	if att != nil {
		url, err := s.uploader.Upload(ctx, p.ID, att.Name, att.ContentType, att.Body)
		if err != nil {
			return Post{}, fmt.Errorf("failed to upload attachment for post %s: %w", p.ID, err)
		}
		p.FileURL = url
	}

	return insert(ctx, s, s.stores.Posts, CollectionPosts, p.ID, p, KeyPublishedPosts)
}

// UpdatePost replaces the editable fields of a post. An empty FileURL keeps the
// stored one so an uploaded attachment survives edits that do not resend it.
func (s *Service) UpdatePost(ctx context.Context, id string, in PostInput) (Post, error) {
	p, err := load(ctx, s.stores.Posts, CollectionPosts, id)
	if err != nil {
		return Post{}, err
	}
	applyPostInput(&p, in)
	p.UpdatedAt = s.timestamp()
	return update(ctx, s, s.stores.Posts, CollectionPosts, id, p, KeyPublishedPosts)
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	return remove(ctx, s, s.stores.Posts, CollectionPosts, id, KeyPublishedPosts)
}

// SetPublished publishes or unpublishes every post in ids. Posts that fail are
// reported together; the others are still updated.
func (s *Service) SetPublished(ctx context.Context, published bool, ids ...string) error {
	var (
		done []string
		errs []error
	)
	for _, id := range ids {
		p, err := load(ctx, s.stores.Posts, CollectionPosts, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Published = published
		p.UpdatedAt = s.timestamp()
		if err := s.stores.Posts.Put(ctx, id, p); err != nil {
			errs = append(errs, fmt.Errorf("failed to update %s/%s: %w", CollectionPosts, id, err))
			continue
		}
		done = append(done, id)
	}
	if len(done) > 0 {
		s.afterMutation(ctx, CollectionPosts, audit.OpUpdate, done, KeyPublishedPosts)
	}
	return errors.Join(errs...)
}

// BulkDeletePosts deletes every post in ids, reporting failures together.
func (s *Service) BulkDeletePosts(ctx context.Context, ids ...string) error {
	var (
		done []string
		errs []error
	)
	for _, id := range ids {
		if err := s.stores.Posts.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s/%s: %w", CollectionPosts, id, err))
			continue
		}
		done = append(done, id)
	}
	if len(done) > 0 {
		s.afterMutation(ctx, CollectionPosts, audit.OpDelete, done, KeyPublishedPosts)
	}
	return errors.Join(errs...)
}

func applyPostInput(p *Post, in PostInput) {
	p.Title = trim(in.Title)
	p.Description = trim(in.Description)
	p.ContentType = in.ContentType
	p.EducationType = in.EducationType
	p.SubjectID = trim(in.SubjectID)
	p.SchoolSubjectID = trim(in.SchoolSubjectID)
	if url := trim(in.FileURL); url != "" {
		p.FileURL = url
	}
	p.EmbedURL = trim(in.EmbedURL)
	p.Published = in.Published

	switch p.EducationType {
	case EducationUniversity:
		p.SchoolSubjectID = ""
	case EducationSchool:
		p.SubjectID = ""
	}
}
