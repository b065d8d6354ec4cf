package catalog

import (
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-catalog/pkg/store"
	"github.com/rs/zerolog"
)

// Collection names, shared by every backend.
const (
	CollectionUniversities   = "universities"
	CollectionFaculties      = "faculties"
	CollectionFields         = "fields"
	CollectionSemesters      = "semesters"
	CollectionSubjects       = "subjects"
	CollectionSchoolLevels   = "school_levels"
	CollectionSchoolYears    = "school_years"
	CollectionSchoolSubjects = "school_subjects"
	CollectionPosts          = "posts"
	CollectionRequests       = "resource_requests"
	CollectionPacks          = "content_packs"
	CollectionPackItems      = "content_pack_items"
)

// Stores groups one collection per catalog entity.
type Stores struct {
	Universities   store.Collection[University]
	Faculties      store.Collection[Faculty]
	Fields         store.Collection[Field]
	Semesters      store.Collection[Semester]
	Subjects       store.Collection[Subject]
	SchoolLevels   store.Collection[SchoolLevel]
	SchoolYears    store.Collection[SchoolYear]
	SchoolSubjects store.Collection[SchoolSubject]
	Posts          store.Collection[Post]

	ResourceRequests store.Collection[ResourceRequest]
	ContentPacks     store.Collection[ContentPack]
	ContentPackItems store.Collection[ContentPackItem]
}

// NewMemoryStores returns empty in-memory collections.
func NewMemoryStores() Stores {
	return Stores{
		Universities:   store.NewMemoryCollection[University](CollectionUniversities),
		Faculties:      store.NewMemoryCollection[Faculty](CollectionFaculties),
		Fields:         store.NewMemoryCollection[Field](CollectionFields),
		Semesters:      store.NewMemoryCollection[Semester](CollectionSemesters),
		Subjects:       store.NewMemoryCollection[Subject](CollectionSubjects),
		SchoolLevels:   store.NewMemoryCollection[SchoolLevel](CollectionSchoolLevels),
		SchoolYears:    store.NewMemoryCollection[SchoolYear](CollectionSchoolYears),
		SchoolSubjects: store.NewMemoryCollection[SchoolSubject](CollectionSchoolSubjects),
		Posts:          store.NewMemoryCollection[Post](CollectionPosts),

		ResourceRequests: store.NewMemoryCollection[ResourceRequest](CollectionRequests),
		ContentPacks:     store.NewMemoryCollection[ContentPack](CollectionPacks),
		ContentPackItems: store.NewMemoryCollection[ContentPackItem](CollectionPackItems),
	}
}

// NewUnconfiguredStores returns collections that read as empty and reject
// every mutation with store.ErrNotConfigured.
func NewUnconfiguredStores() Stores {
	return Stores{
		Universities:   store.Unconfigured[University]{Name: CollectionUniversities},
		Faculties:      store.Unconfigured[Faculty]{Name: CollectionFaculties},
		Fields:         store.Unconfigured[Field]{Name: CollectionFields},
		Semesters:      store.Unconfigured[Semester]{Name: CollectionSemesters},
		Subjects:       store.Unconfigured[Subject]{Name: CollectionSubjects},
		SchoolLevels:   store.Unconfigured[SchoolLevel]{Name: CollectionSchoolLevels},
		SchoolYears:    store.Unconfigured[SchoolYear]{Name: CollectionSchoolYears},
		SchoolSubjects: store.Unconfigured[SchoolSubject]{Name: CollectionSchoolSubjects},
		Posts:          store.Unconfigured[Post]{Name: CollectionPosts},

		ResourceRequests: store.Unconfigured[ResourceRequest]{Name: CollectionRequests},
		ContentPacks:     store.Unconfigured[ContentPack]{Name: CollectionPacks},
		ContentPackItems: store.Unconfigured[ContentPackItem]{Name: CollectionPackItems},
	}
}

// NewFirestoreStores opens every collection on a shared Firestore client.
func NewFirestoreStores(projectID string, client *firestore.Client, logger zerolog.Logger) (Stores, error) {
	var (
		s    Stores
		errs []error
	)
	s.Universities = firestoreCollection[University](projectID, CollectionUniversities, client, logger, &errs)
	s.Faculties = firestoreCollection[Faculty](projectID, CollectionFaculties, client, logger, &errs)
	s.Fields = firestoreCollection[Field](projectID, CollectionFields, client, logger, &errs)
	s.Semesters = firestoreCollection[Semester](projectID, CollectionSemesters, client, logger, &errs)
	s.Subjects = firestoreCollection[Subject](projectID, CollectionSubjects, client, logger, &errs)
	s.SchoolLevels = firestoreCollection[SchoolLevel](projectID, CollectionSchoolLevels, client, logger, &errs)
	s.SchoolYears = firestoreCollection[SchoolYear](projectID, CollectionSchoolYears, client, logger, &errs)
	s.SchoolSubjects = firestoreCollection[SchoolSubject](projectID, CollectionSchoolSubjects, client, logger, &errs)
	s.Posts = firestoreCollection[Post](projectID, CollectionPosts, client, logger, &errs)
	s.ResourceRequests = firestoreCollection[ResourceRequest](projectID, CollectionRequests, client, logger, &errs)
	s.ContentPacks = firestoreCollection[ContentPack](projectID, CollectionPacks, client, logger, &errs)
	s.ContentPackItems = firestoreCollection[ContentPackItem](projectID, CollectionPackItems, client, logger, &errs)
	if err := errors.Join(errs...); err != nil {
		return Stores{}, fmt.Errorf("failed to open firestore collections: %w", err)
	}
	return s, nil
}

func firestoreCollection[T any](projectID, name string, client *firestore.Client, logger zerolog.Logger, errs *[]error) store.Collection[T] {
	coll, err := store.NewFirestoreCollection[T](&store.FirestoreConfig{ProjectID: projectID, CollectionName: name}, client, logger)
	if err != nil {
		*errs = append(*errs, err)
		return nil
	}
	return coll
}

// Close closes every collection.
func (s Stores) Close() error {
	closers := []interface{ Close() error }{
		s.Universities, s.Faculties, s.Fields, s.Semesters, s.Subjects,
		s.SchoolLevels, s.SchoolYears, s.SchoolSubjects, s.Posts,
		s.ResourceRequests, s.ContentPacks, s.ContentPackItems,
	}
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
