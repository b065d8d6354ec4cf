package catalog

// Cache keys. Scoped lists append the parent id so lists of different
// parents never share an entry.
const (
	KeyUniversities   = "universities"
	KeySchoolLevels   = "schoolLevels"
	KeyPublishedPosts = "posts-published"

	KeyResourceRequests = "resourceRequests"
	KeyContentPacks     = "contentPacks"
)

func FacultiesKey(universityID string) string  { return scoped("faculties", universityID) }
func FieldsKey(facultyID string) string        { return scoped("fields", facultyID) }
func SemestersKey(fieldID string) string       { return scoped("semesters", fieldID) }
func SubjectsKey(semesterID string) string     { return scoped("subjects", semesterID) }
func SchoolYearsKey(levelID string) string     { return scoped("schoolYears", levelID) }
func SchoolSubjectsKey(yearID string) string   { return scoped("schoolSubjects", yearID) }
func ContentPackItemsKey(packID string) string { return scoped("contentPackItems", packID) }

func scoped(collection, parentID string) string {
	return collection + "-" + parentID
}
