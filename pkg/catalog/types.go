package catalog

import "time"

// DegreeType is the kind of degree a university field leads to.
type DegreeType string

const (
	DegreeLicence DegreeType = "licence"
	DegreeMaster  DegreeType = "master"
)

// ContentType classifies a post.
type ContentType string

const (
	ContentCourse  ContentType = "course"
	ContentExam    ContentType = "exam"
	ContentTD      ContentType = "td"
	ContentSummary ContentType = "summary"
	ContentLink    ContentType = "link"
)

// EducationType says which hierarchy a post hangs off.
type EducationType string

const (
	EducationUniversity EducationType = "university"
	EducationSchool     EducationType = "school"
)

// University is the root of the higher-education hierarchy.
type University struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name" validate:"required,max=255" label:"University name"`
	City      string    `json:"city" firestore:"city" validate:"required,max=255" label:"City"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

type Faculty struct {
	ID           string    `json:"id" firestore:"id"`
	UniversityID string    `json:"university_id" firestore:"university_id" validate:"required" label:"University"`
	Name         string    `json:"name" firestore:"name" validate:"required,max=255" label:"Faculty name"`
	CreatedAt    time.Time `json:"created_at" firestore:"created_at"`
}

type Field struct {
	ID         string     `json:"id" firestore:"id"`
	FacultyID  string     `json:"faculty_id" firestore:"faculty_id" validate:"required" label:"Faculty"`
	Name       string     `json:"name" firestore:"name" validate:"required,max=255" label:"Field name"`
	DegreeType DegreeType `json:"degree_type" firestore:"degree_type" validate:"oneof=licence master" label:"Degree type"`
	CreatedAt  time.Time  `json:"created_at" firestore:"created_at"`
}

// Semester names run from S1 to S6.
type Semester struct {
	ID        string    `json:"id" firestore:"id"`
	FieldID   string    `json:"field_id" firestore:"field_id" validate:"required" label:"Field"`
	Name      string    `json:"name" firestore:"name" validate:"oneof=S1 S2 S3 S4 S5 S6" label:"Semester name"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Subject is a leaf of the university hierarchy; posts attach to it.
type Subject struct {
	ID         string    `json:"id" firestore:"id"`
	SemesterID string    `json:"semester_id" firestore:"semester_id" validate:"required" label:"Semester"`
	Name       string    `json:"name" firestore:"name" validate:"required,max=255" label:"Subject name"`
	CreatedAt  time.Time `json:"created_at" firestore:"created_at"`
}

// SchoolLevel is the root of the school hierarchy, e.g. Collège or Lycée.
type SchoolLevel struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name" validate:"required,max=255" label:"Level name"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

type SchoolYear struct {
	ID        string    `json:"id" firestore:"id"`
	LevelID   string    `json:"level_id" firestore:"level_id" validate:"required" label:"Level"`
	Name      string    `json:"name" firestore:"name" validate:"required,max=255" label:"Year name"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// SchoolSubject is a leaf of the school hierarchy.
type SchoolSubject struct {
	ID        string    `json:"id" firestore:"id"`
	YearID    string    `json:"year_id" firestore:"year_id" validate:"required" label:"Year"`
	Name      string    `json:"name" firestore:"name" validate:"required,max=255" label:"Subject name"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Post is a piece of content attached to a subject of either hierarchy.
type Post struct {
	ID              string        `json:"id" firestore:"id"`
	Title           string        `json:"title" firestore:"title" validate:"required,max=255" label:"Title"`
	Description     string        `json:"description" firestore:"description" validate:"max=5000" label:"Description"`
	ContentType     ContentType   `json:"content_type" firestore:"content_type" validate:"oneof=course exam td summary link" label:"Content type"`
	EducationType   EducationType `json:"education_type" firestore:"education_type" validate:"oneof=university school" label:"Education type"`
	SubjectID       string        `json:"subject_id,omitempty" firestore:"subject_id,omitempty" validate:"required_if=EducationType university" label:"Subject"`
	SchoolSubjectID string        `json:"school_subject_id,omitempty" firestore:"school_subject_id,omitempty" validate:"required_if=EducationType school" label:"School subject"`
	FileURL         string        `json:"file_url,omitempty" firestore:"file_url,omitempty" validate:"omitempty,url" label:"File URL"`
	EmbedURL        string        `json:"embed_url,omitempty" firestore:"embed_url,omitempty" validate:"omitempty,url" label:"Embed URL"`
	Published       bool          `json:"published" firestore:"published"`
	CreatedBy       string        `json:"created_by" firestore:"created_by"`
	CreatedAt       time.Time     `json:"created_at" firestore:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" firestore:"updated_at"`
}

// PostInput holds the editable fields of a post.
type PostInput struct {
	Title           string
	Description     string
	ContentType     ContentType
	EducationType   EducationType
	SubjectID       string
	SchoolSubjectID string
	FileURL         string
	EmbedURL        string
	Published       bool
}

// RequestStatus tracks how staff handled a resource request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestFulfilled  RequestStatus = "fulfilled"
	RequestRejected   RequestStatus = "rejected"
)

// ResourceRequest is a request for material the catalog does not have yet.
type ResourceRequest struct {
	ID            string        `json:"id" firestore:"id"`
	Title         string        `json:"title" firestore:"title" validate:"required,max=255" label:"Request title"`
	Description   string        `json:"description" firestore:"description" validate:"max=5000" label:"Description"`
	EducationType EducationType `json:"education_type,omitempty" firestore:"education_type,omitempty" validate:"omitempty,oneof=university school" label:"Education type"`
	Status        RequestStatus `json:"status" firestore:"status" validate:"oneof=pending in_progress fulfilled rejected" label:"Status"`
	AdminNote     string        `json:"admin_note,omitempty" firestore:"admin_note,omitempty" validate:"max=1000" label:"Admin note"`
	RequestedBy   string        `json:"requested_by" firestore:"requested_by"`
	CreatedAt     time.Time     `json:"created_at" firestore:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" firestore:"updated_at"`
}

// ResourceRequestUpdate holds what staff may change on a request. Empty
// fields keep the stored value.
type ResourceRequestUpdate struct {
	Status    RequestStatus
	AdminNote string
}

type PackStatus string

const (
	PackDraft     PackStatus = "draft"
	PackPublished PackStatus = "published"
	PackArchived  PackStatus = "archived"
)

type PackVisibility string

const (
	VisibilityPublic  PackVisibility = "public"
	VisibilityPrivate PackVisibility = "private"
)

// ContentPack is a curated, ordered bundle of posts.
type ContentPack struct {
	ID            string         `json:"id" firestore:"id"`
	Title         string         `json:"title" firestore:"title" validate:"required,max=255" label:"Pack title"`
	Description   string         `json:"description" firestore:"description" validate:"max=5000" label:"Description"`
	EducationType EducationType  `json:"education_type,omitempty" firestore:"education_type,omitempty" validate:"omitempty,oneof=university school" label:"Education type"`
	Status        PackStatus     `json:"status" firestore:"status" validate:"oneof=draft published archived" label:"Status"`
	Visibility    PackVisibility `json:"visibility" firestore:"visibility" validate:"oneof=public private" label:"Visibility"`
	CreatedBy     string         `json:"created_by" firestore:"created_by"`
	CreatedAt     time.Time      `json:"created_at" firestore:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updated_at"`
}

// ContentPackInput holds the editable fields of a pack. On update, empty
// fields keep the stored value.
type ContentPackInput struct {
	Title         string
	Description   string
	EducationType EducationType
	Status        PackStatus
	Visibility    PackVisibility
}

// ContentPackItem places a post at a position inside a pack.
type ContentPackItem struct {
	ID        string    `json:"id" firestore:"id"`
	PackID    string    `json:"pack_id" firestore:"pack_id" validate:"required" label:"Pack"`
	PostID    string    `json:"post_id" firestore:"post_id" validate:"required" label:"Post"`
	Position  int       `json:"position" firestore:"position" validate:"min=0" label:"Position"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}
