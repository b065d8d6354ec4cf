package catalog

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/store"
)

// universitiesPageSize caps the universities list to its first page.
const universitiesPageSize = 100

var universitiesQuery = store.Query{OrderBy: "name", Limit: universitiesPageSize}

// Universities returns the first page of universities ordered by name.
func (s *Service) Universities(ctx context.Context) ([]University, error) {
	return cachedList(ctx, s, KeyUniversities, s.stores.Universities, universitiesQuery)
}

func (s *Service) Faculties(ctx context.Context, universityID string) ([]Faculty, error) {
	return cachedList(ctx, s, FacultiesKey(universityID), s.stores.Faculties, store.Where("university_id", universityID))
}

func (s *Service) Fields(ctx context.Context, facultyID string) ([]Field, error) {
	return cachedList(ctx, s, FieldsKey(facultyID), s.stores.Fields, store.Where("faculty_id", facultyID))
}

func (s *Service) Semesters(ctx context.Context, fieldID string) ([]Semester, error) {
	return cachedList(ctx, s, SemestersKey(fieldID), s.stores.Semesters, store.Where("field_id", fieldID))
}

func (s *Service) Subjects(ctx context.Context, semesterID string) ([]Subject, error) {
	return cachedList(ctx, s, SubjectsKey(semesterID), s.stores.Subjects, store.Where("semester_id", semesterID))
}

// --- universities ---

func (s *Service) CreateUniversity(ctx context.Context, name, city string) (University, error) {
	u := University{ID: s.newID(), Name: trim(name), City: trim(city), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.Universities, CollectionUniversities, u.ID, u, KeyUniversities)
}

func (s *Service) UpdateUniversity(ctx context.Context, id, name, city string) (University, error) {
	u, err := load(ctx, s.stores.Universities, CollectionUniversities, id)
	if err != nil {
		return University{}, err
	}
	u.Name, u.City = trim(name), trim(city)
	return update(ctx, s, s.stores.Universities, CollectionUniversities, id, u, KeyUniversities)
}

// DeleteUniversity removes a university. Its faculties stay in the store;
// their cached list is dropped with it.
func (s *Service) DeleteUniversity(ctx context.Context, id string) error {
	return remove(ctx, s, s.stores.Universities, CollectionUniversities, id, KeyUniversities, FacultiesKey(id))
}

// --- faculties ---

func (s *Service) CreateFaculty(ctx context.Context, universityID, name string) (Faculty, error) {
	f := Faculty{ID: s.newID(), UniversityID: trim(universityID), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.Faculties, CollectionFaculties, f.ID, f, FacultiesKey(f.UniversityID))
}

func (s *Service) UpdateFaculty(ctx context.Context, id, name string) (Faculty, error) {
	f, err := load(ctx, s.stores.Faculties, CollectionFaculties, id)
	if err != nil {
		return Faculty{}, err
	}
	f.Name = trim(name)
	return update(ctx, s, s.stores.Faculties, CollectionFaculties, id, f, FacultiesKey(f.UniversityID))
}

func (s *Service) DeleteFaculty(ctx context.Context, id string) error {
	f, err := load(ctx, s.stores.Faculties, CollectionFaculties, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.Faculties, CollectionFaculties, id, FacultiesKey(f.UniversityID), FieldsKey(id))
}

// --- fields ---

func (s *Service) CreateField(ctx context.Context, facultyID, name string, degree DegreeType) (Field, error) {
	f := Field{ID: s.newID(), FacultyID: trim(facultyID), Name: trim(name), DegreeType: degree, CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.Fields, CollectionFields, f.ID, f, FieldsKey(f.FacultyID))
}

func (s *Service) UpdateField(ctx context.Context, id, name string, degree DegreeType) (Field, error) {
	f, err := load(ctx, s.stores.Fields, CollectionFields, id)
	if err != nil {
		return Field{}, err
	}
	f.Name, f.DegreeType = trim(name), degree
	return update(ctx, s, s.stores.Fields, CollectionFields, id, f, FieldsKey(f.FacultyID))
}

func (s *Service) DeleteField(ctx context.Context, id string) error {
	f, err := load(ctx, s.stores.Fields, CollectionFields, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.Fields, CollectionFields, id, FieldsKey(f.FacultyID), SemestersKey(id))
}

// --- semesters ---

func (s *Service) CreateSemester(ctx context.Context, fieldID, name string) (Semester, error) {
	sem := Semester{ID: s.newID(), FieldID: trim(fieldID), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.Semesters, CollectionSemesters, sem.ID, sem, SemestersKey(sem.FieldID))
}

func (s *Service) UpdateSemester(ctx context.Context, id, name string) (Semester, error) {
	sem, err := load(ctx, s.stores.Semesters, CollectionSemesters, id)
	if err != nil {
		return Semester{}, err
	}
	sem.Name = trim(name)
	return update(ctx, s, s.stores.Semesters, CollectionSemesters, id, sem, SemestersKey(sem.FieldID))
}

func (s *Service) DeleteSemester(ctx context.Context, id string) error {
	sem, err := load(ctx, s.stores.Semesters, CollectionSemesters, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.Semesters, CollectionSemesters, id, SemestersKey(sem.FieldID), SubjectsKey(id))
}

// --- subjects ---

func (s *Service) CreateSubject(ctx context.Context, semesterID, name string) (Subject, error) {
	sub := Subject{ID: s.newID(), SemesterID: trim(semesterID), Name: trim(name), CreatedAt: s.timestamp()}
	return insert(ctx, s, s.stores.Subjects, CollectionSubjects, sub.ID, sub, SubjectsKey(sub.SemesterID))
}

func (s *Service) UpdateSubject(ctx context.Context, id, name string) (Subject, error) {
	sub, err := load(ctx, s.stores.Subjects, CollectionSubjects, id)
	if err != nil {
		return Subject{}, err
	}
	sub.Name = trim(name)
	return update(ctx, s, s.stores.Subjects, CollectionSubjects, id, sub, SubjectsKey(sub.SemesterID))
}

func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	sub, err := load(ctx, s.stores.Subjects, CollectionSubjects, id)
	if err != nil {
		return err
	}
	return remove(ctx, s, s.stores.Subjects, CollectionSubjects, id, SubjectsKey(sub.SemesterID))
}
