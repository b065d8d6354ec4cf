package catalog

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/store"
)

func (s *Service) SchoolLevels(ctx context.Context) ([]SchoolLevel, error) {
	return cachedList(ctx, s, KeySchoolLevels, s.stores.SchoolLevels, store.Query{})
}

func (s *Service) SchoolYears(ctx context.Context, levelID string) ([]SchoolYear, error) {
	return cachedList(ctx, s, SchoolYearsKey(levelID), s.stores.SchoolYears, store.Where("level_id", levelID))
}

func (s *Service) SchoolSubjects(ctx context.Context, yearID string) ([]SchoolSubject, error) {
	return cachedList(ctx, s, SchoolSubjectsKey(yearID), s.stores.SchoolSubjects, store.Where("year_id", yearID))
}

func (s *Service) CreateSchoolLevel(ctx context.Context, name string) (SchoolLevel, error) {
	l := SchoolLevel{ID: s.newID(), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.SchoolLevels, CollectionSchoolLevels, l.ID, l, KeySchoolLevels)
}

func (s *Service) UpdateSchoolLevel(ctx context.Context, id, name string) (SchoolLevel, error) {
	l, err := load(ctx, s.stores.SchoolLevels, CollectionSchoolLevels, id)
	if err != nil {
		return SchoolLevel{}, err
	}
	l.Name = trim(name)
	return update(ctx, s, s.stores.SchoolLevels, CollectionSchoolLevels, id, l, KeySchoolLevels)
}

func (s *Service) DeleteSchoolLevel(ctx context.Context, id string) error {
	return remove(ctx, s, s.stores.SchoolLevels, CollectionSchoolLevels, id, KeySchoolLevels, SchoolYearsKey(id))
}

func (s *Service) CreateSchoolYear(ctx context.Context, levelID, name string) (SchoolYear, error) {
	y := SchoolYear{ID: s.newID(), LevelID: trim(levelID), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.SchoolYears, CollectionSchoolYears, y.ID, y, SchoolYearsKey(y.LevelID))
}

func (s *Service) UpdateSchoolYear(ctx context.Context, id, name string) (SchoolYear, error) {
	y, err := load(ctx, s.stores.SchoolYears, CollectionSchoolYears, id)
	if err != nil {
		return SchoolYear{}, err
	}
	y.Name = trim(name)
	return update(ctx, s, s.stores.SchoolYears, CollectionSchoolYears, id, y, SchoolYearsKey(y.LevelID))
}

func (s *Service) DeleteSchoolYear(ctx context.Context, id string) error {
	y, err := load(ctx, s.stores.SchoolYears, CollectionSchoolYears, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.SchoolYears, CollectionSchoolYears, id, SchoolYearsKey(y.LevelID), SchoolSubjectsKey(id))
}

func (s *Service) CreateSchoolSubject(ctx context.Context, yearID, name string) (SchoolSubject, error) {
	sub := SchoolSubject{ID: s.newID(), YearID: trim(yearID), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.SchoolSubjects, CollectionSchoolSubjects, sub.ID, sub, SchoolSubjectsKey(sub.YearID))
}

func (s *Service) UpdateSchoolSubject(ctx context.Context, id, name string) (SchoolSubject, error) {
	sub, err := load(ctx, s.stores.SchoolSubjects, CollectionSchoolSubjects, id)
	if err != nil {
		return SchoolSubject{}, err
	}
	sub.Name = trim(name)
	return update(ctx, s, s.stores.SchoolSubjects, CollectionSchoolSubjects, id, sub, SchoolSubjectsKey(sub.YearID))
}

func (s *Service) DeleteSchoolSubject(ctx context.Context, id string) error {
	sub, err := load(ctx, s.stores.SchoolSubjects, CollectionSchoolSubjects, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.SchoolSubjects, CollectionSchoolSubjects, id, SchoolSubjectsKey(sub.YearID))
}
